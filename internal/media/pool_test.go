package media_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/model"
)

func result(source, text string, images ...string) model.RetrievedResult {
	chunk := model.Chunk{Text: text, Source: source, SourceDoc: source}
	for _, url := range images {
		chunk.ImageRefs = append(chunk.ImageRefs, model.MediaRefFromURL(url, model.MediaKindImage))
	}
	return model.RetrievedResult{Chunk: chunk}
}

func TestAggregateDeduplicatesFirstSeenWins(t *testing.T) {
	pool := media.Aggregate([]model.RetrievedResult{
		result("s1", "first chunk text", "/media/a.png", "/media/b.png"),
		result("s2", "second chunk text", "/media/b.png", "/media/c.png"),
	})

	items := pool.Items()
	require.Len(t, items, 3)
	require.Equal(t, "/media/a.png", items[0].Ref.URL)
	require.Equal(t, "/media/b.png", items[1].Ref.URL)
	require.Equal(t, "/media/c.png", items[2].Ref.URL)

	// The duplicate keeps its first owner's context.
	require.Equal(t, "first chunk text", items[1].Context)
	require.Equal(t, "second chunk text", items[2].Context)
}

func TestAggregateEmptyInput(t *testing.T) {
	pool := media.Aggregate(nil)
	require.Zero(t, pool.Len())
	require.Empty(t, pool.URLsByKind(model.MediaKindImage))
}

func TestAggregateSplitsKinds(t *testing.T) {
	chunk := model.Chunk{
		Text:      "walkthrough",
		Source:    "s1",
		ImageRefs: []model.MediaRef{model.MediaRefFromURL("/media/a.png", model.MediaKindImage)},
		VideoRefs: []model.MediaRef{model.MediaRefFromURL("https://www.youtube.com/embed/x", model.MediaKindVideo)},
	}
	pool := media.Aggregate([]model.RetrievedResult{{Chunk: chunk}})
	require.Equal(t, []string{"/media/a.png"}, pool.URLsByKind(model.MediaKindImage))
	require.Equal(t, []string{"https://www.youtube.com/embed/x"}, pool.URLsByKind(model.MediaKindVideo))
}
