package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/ai"
	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// Result is what remains of a synthesis run after the event stream has
// been delivered, kept for interaction logging.
type Result struct {
	InteractionID string
	Answer        string
	Suggestions   []string
	Bindings      []model.StepBinding
}

// Synthesizer drives one answer: metadata first, then streamed tokens,
// then a bounded suggestion call, then the terminal event carrying the
// step/image bindings.
type Synthesizer struct {
	generator      ai.IGenerator
	matcher        *media.Matcher
	suggestTimeout time.Duration
}

func NewSynthesizer(generator ai.IGenerator, matcher *media.Matcher, suggestTimeout time.Duration) *Synthesizer {
	return &Synthesizer{
		generator:      generator,
		matcher:        matcher,
		suggestTimeout: suggestTimeout,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []model.Message,
	results []model.RetrievedResult, pool *model.MediaPool, emit EmitFunc) (*Result, error) {

	interactionID := uuid.NewString()
	if err := emit(s.metadataEvent(interactionID, results, pool)); err != nil {
		return nil, err
	}

	var answer strings.Builder
	prompt := buildPrompt(query, results)
	streamErr := s.generator.GenerateStream(ctx, prompt, history, func(token string) error {
		answer.WriteString(token)
		return emit(TokenEvent{Type: EventTypeToken, Token: token})
	})
	if streamErr != nil {
		// Client disconnects surface here as context errors; there is no
		// one left to send an error event to.
		if ctx.Err() == nil {
			_ = emit(ErrorEvent{Type: EventTypeError, Message: "answer generation failed"})
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrSynthesisFailed, streamErr)
	}

	suggestions := s.suggest(ctx, query, answer.String())
	if err := emit(SuggestionsEvent{Type: EventTypeSuggestions, Suggestions: suggestions}); err != nil {
		return nil, err
	}

	bindings := s.matcher.MatchSteps(answer.String(), pool)
	done := DoneEvent{Type: EventTypeDone, InteractionID: interactionID, StepImages: make([]StepImage, 0, len(bindings))}
	for _, binding := range bindings {
		done.StepImages = append(done.StepImages, StepImage{Step: binding.StepNumber, URL: binding.Media.URL})
	}
	if err := emit(done); err != nil {
		return nil, err
	}

	return &Result{
		InteractionID: interactionID,
		Answer:        answer.String(),
		Suggestions:   suggestions,
		Bindings:      bindings,
	}, nil
}

func (s *Synthesizer) metadataEvent(interactionID string, results []model.RetrievedResult, pool *model.MediaPool) MetadataEvent {
	event := MetadataEvent{
		Type:          EventTypeMetadata,
		InteractionID: interactionID,
		Sources:       make([]SourceInfo, 0, len(results)),
		Chunks:        make([]string, 0, len(results)),
		Images:        pool.URLsByKind(model.MediaKindImage),
		Videos:        pool.URLsByKind(model.MediaKindVideo),
	}
	for _, result := range results {
		event.Sources = append(event.Sources, SourceInfo{Source: result.Chunk.Source, Score: result.FusedScore})
		event.Chunks = append(event.Chunks, result.Chunk.Text)
	}
	return event
}

// suggest asks for follow-up questions under its own short deadline.
// Failure yields an empty list; the already-delivered answer is never
// invalidated by this step.
func (s *Synthesizer) suggest(ctx context.Context, query, answer string) []string {
	suggestCtx, cancel := context.WithTimeout(ctx, s.suggestTimeout)
	defer cancel()
	raw, err := s.generator.Generate(suggestCtx, suggestionPrompt(query, answer))
	if err != nil {
		logutil.GetLogger(ctx).Warn("suggestion generation failed", zap.Error(err))
		return []string{}
	}
	return parseSuggestions(raw)
}

// parseSuggestions accepts a JSON string array, tolerating code fences
// and falling back to line splitting for models that ignore the format
// instruction.
func parseSuggestions(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return capSuggestions(parsed)
	}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		line = strings.Trim(line, `"`)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return capSuggestions(lines)
}

func capSuggestions(items []string) []string {
	cleaned := make([]string, 0, 4)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
		if len(cleaned) == 4 {
			break
		}
	}
	return cleaned
}
