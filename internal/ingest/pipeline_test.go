package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/ingest"
	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/vectorstore"
)

type batchEmbedder struct {
	failTexts map[string]struct{}
}

func (f *batchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *batchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if _, bad := f.failTexts[text]; bad {
			return nil, errors.New("token limit exceeded")
		}
		vectors = append(vectors, []float32{1, 2, 3})
	}
	return vectors, nil
}

func (f *batchEmbedder) ModelName() string { return "fake-embed" }

type captureStore struct {
	upserts [][]vectorstore.Point
	failAll bool
}

func (s *captureStore) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if s.failAll {
		return errors.New("store down")
	}
	s.upserts = append(s.upserts, points)
	return nil
}

func (s *captureStore) total() int {
	n := 0
	for _, batch := range s.upserts {
		n += len(batch)
	}
	return n
}

func chunks(n int) []model.Chunk {
	out := make([]model.Chunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Chunk{
			Text:      fmt.Sprintf("chunk text %d", i),
			Source:    fmt.Sprintf("kb/doc.txt#chunk-%d", i+1),
			SourceDoc: "kb/doc.txt",
		})
	}
	return out
}

func TestIngestHappyPathBatches(t *testing.T) {
	store := &captureStore{}
	pipeline := ingest.NewPipeline(&batchEmbedder{}, store, config.IngestConfig{BatchSize: 4})

	report, err := pipeline.Ingest(context.Background(), chunks(10))
	require.NoError(t, err)
	require.Equal(t, 10, report.Accepted)
	require.Zero(t, report.Rejected)
	require.Len(t, store.upserts, 3)
	require.Equal(t, 10, store.total())
}

func TestIngestRetriesFailedBatchAtHalfSize(t *testing.T) {
	// One poisoned chunk sinks its full batch; on the half-size retry
	// only the half containing it is rejected.
	all := chunks(4)
	embedder := &batchEmbedder{failTexts: map[string]struct{}{all[3].Text: {}}}
	store := &captureStore{}
	pipeline := ingest.NewPipeline(embedder, store, config.IngestConfig{BatchSize: 4})

	report, err := pipeline.Ingest(context.Background(), all)
	require.NoError(t, err)
	require.Equal(t, 2, report.Accepted)
	require.Equal(t, 2, report.Rejected)
	require.Equal(t, 2, store.total())
}

func TestIngestStoreFailureRejectsWithoutAborting(t *testing.T) {
	store := &captureStore{failAll: true}
	pipeline := ingest.NewPipeline(&batchEmbedder{}, store, config.IngestConfig{BatchSize: 2})

	report, err := pipeline.Ingest(context.Background(), chunks(6))
	require.NoError(t, err)
	require.Zero(t, report.Accepted)
	require.Equal(t, 6, report.Rejected)
}

func TestIngestCarriesMediaURLsInPayload(t *testing.T) {
	store := &captureStore{}
	pipeline := ingest.NewPipeline(&batchEmbedder{}, store, config.IngestConfig{BatchSize: 4})

	chunk := model.Chunk{
		Text:      "section text",
		Source:    "kb/doc.html#chunk-1",
		SourceDoc: "kb/doc.html",
		ImageRefs: []model.MediaRef{model.MediaRefFromURL("/media/a.png", model.MediaKindImage)},
		VideoRefs: []model.MediaRef{model.MediaRefFromURL("https://www.youtube.com/embed/x", model.MediaKindVideo)},
	}
	report, err := pipeline.Ingest(context.Background(), []model.Chunk{chunk})
	require.NoError(t, err)
	require.Equal(t, 1, report.Accepted)

	point := store.upserts[0][0]
	require.NotEmpty(t, point.ID)
	require.Equal(t, []string{"/media/a.png"}, point.Payload.ImageURLs)
	require.Equal(t, []string{"https://www.youtube.com/embed/x"}, point.Payload.VideoURLs)
	require.Equal(t, "kb/doc.html#chunk-1", point.Payload.Source)
}

func TestIngestEmptyInput(t *testing.T) {
	pipeline := ingest.NewPipeline(&batchEmbedder{}, &captureStore{}, config.IngestConfig{BatchSize: 4})
	report, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, report.Accepted)
	require.Zero(t, report.Rejected)
}
