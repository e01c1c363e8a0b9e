package synthesis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
	"github.com/answerdesk/answerdesk/internal/synthesis"
)

type fakeGenerator struct {
	tokens     []string
	streamErr  error
	suggestion string
	suggestErr error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.suggestErr != nil {
		return "", f.suggestErr
	}
	return f.suggestion, nil
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, prompt string, history []model.Message, onToken func(string) error) error {
	for _, token := range f.tokens {
		if err := onToken(token); err != nil {
			return err
		}
	}
	return f.streamErr
}

func newSynthesizer(gen *fakeGenerator) *synthesis.Synthesizer {
	matcher := media.NewMatcher(config.MatcherConfig{ScoreThreshold: 0.3, MaxImages: 5})
	return synthesis.NewSynthesizer(gen, matcher, time.Second)
}

func collectEvents(t *testing.T, gen *fakeGenerator, results []model.RetrievedResult, pool *model.MediaPool) ([]interface{}, *synthesis.Result, error) {
	t.Helper()
	var events []interface{}
	result, err := newSynthesizer(gen).Synthesize(context.Background(), "how do I reset?", nil, results, pool, func(event interface{}) error {
		events = append(events, event)
		return nil
	})
	return events, result, err
}

func retrievedResults() []model.RetrievedResult {
	return []model.RetrievedResult{
		{
			Chunk:      model.Chunk{Text: "Reset via the settings menu.", Source: "kb/reset.html#chunk-1"},
			FusedScore: 0.9,
			Rank:       1,
		},
	}
}

func TestSynthesizeEventOrdering(t *testing.T) {
	gen := &fakeGenerator{
		tokens:     []string{"Open ", "settings ", "[1]."},
		suggestion: `["How do I change my password?", "Where are the settings?"]`,
	}
	events, result, err := collectEvents(t, gen, retrievedResults(), &model.MediaPool{})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, events, 6)
	metadata, ok := events[0].(synthesis.MetadataEvent)
	require.True(t, ok)
	require.Equal(t, "metadata", metadata.Type)
	require.NotEmpty(t, metadata.InteractionID)
	require.Equal(t, []synthesis.SourceInfo{{Source: "kb/reset.html#chunk-1", Score: 0.9}}, metadata.Sources)
	require.Equal(t, []string{"Reset via the settings menu."}, metadata.Chunks)

	for i, want := range []string{"Open ", "settings ", "[1]."} {
		token, ok := events[1+i].(synthesis.TokenEvent)
		require.True(t, ok)
		require.Equal(t, want, token.Token)
	}

	suggestions, ok := events[4].(synthesis.SuggestionsEvent)
	require.True(t, ok)
	require.Len(t, suggestions.Suggestions, 2)

	done, ok := events[5].(synthesis.DoneEvent)
	require.True(t, ok)
	require.Equal(t, metadata.InteractionID, done.InteractionID)

	require.Equal(t, "Open settings [1].", result.Answer)
	require.Equal(t, metadata.InteractionID, result.InteractionID)
}

func TestSynthesizeStreamFailureEmitsErrorNotDone(t *testing.T) {
	gen := &fakeGenerator{
		tokens:    []string{"partial "},
		streamErr: errors.New("model connection lost"),
	}
	events, _, err := collectEvents(t, gen, retrievedResults(), &model.MediaPool{})
	require.ErrorIs(t, err, errs.ErrSynthesisFailed)

	last := events[len(events)-1]
	errEvent, ok := last.(synthesis.ErrorEvent)
	require.True(t, ok)
	require.Equal(t, "error", errEvent.Type)
	for _, event := range events {
		_, isDone := event.(synthesis.DoneEvent)
		require.False(t, isDone)
	}
}

func TestSynthesizeSuggestionFailureYieldsEmptyList(t *testing.T) {
	gen := &fakeGenerator{
		tokens:     []string{"answer"},
		suggestErr: errors.New("timeout"),
	}
	events, result, err := collectEvents(t, gen, retrievedResults(), &model.MediaPool{})
	require.NoError(t, err)
	require.Empty(t, result.Suggestions)

	suggestions, ok := events[len(events)-2].(synthesis.SuggestionsEvent)
	require.True(t, ok)
	require.Empty(t, suggestions.Suggestions)
	_, isDone := events[len(events)-1].(synthesis.DoneEvent)
	require.True(t, isDone)
}

func TestSynthesizeSuggestionParsingTolerance(t *testing.T) {
	gen := &fakeGenerator{
		tokens: []string{"answer"},
		suggestion: "```json\n[\"one\", \"two\", \"three\", \"four\", \"five\"]\n```",
	}
	_, result, err := collectEvents(t, gen, retrievedResults(), &model.MediaPool{})
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three", "four"}, result.Suggestions)

	gen = &fakeGenerator{
		tokens:     []string{"answer"},
		suggestion: "- first question\n- second question\n",
	}
	_, result, err = collectEvents(t, gen, retrievedResults(), &model.MediaPool{})
	require.NoError(t, err)
	require.Equal(t, []string{"first question", "second question"}, result.Suggestions)
}

func TestSynthesizeDoneCarriesStepImages(t *testing.T) {
	gen := &fakeGenerator{
		tokens:     []string{"1. Open the settings menu\n", "2. Click the restart button\n"},
		suggestion: `[]`,
	}
	pool := &model.MediaPool{}
	pool.Add(model.MediaRefFromURL("/media/settings.png", model.MediaKindImage), "open the settings menu")

	events, result, err := collectEvents(t, gen, retrievedResults(), pool)
	require.NoError(t, err)
	require.Len(t, result.Bindings, 1)

	done := events[len(events)-1].(synthesis.DoneEvent)
	require.Equal(t, []synthesis.StepImage{{Step: 1, URL: "/media/settings.png"}}, done.StepImages)
}

func TestSynthesizeStopsWhenConsumerGone(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"a", "b", "c"}}
	delivered := 0
	_, err := newSynthesizer(gen).Synthesize(context.Background(), "q", nil, retrievedResults(), &model.MediaPool{}, func(event interface{}) error {
		delivered++
		if delivered > 2 {
			return errors.New("client disconnected")
		}
		return nil
	})
	require.Error(t, err)
	// metadata + 2 tokens delivered, then the rejected third token and
	// the best-effort error event; no done, no suggestions.
	require.Equal(t, 4, delivered)
}
