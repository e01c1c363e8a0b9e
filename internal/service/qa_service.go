package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/repo"
	"github.com/answerdesk/answerdesk/internal/retrieval"
	"github.com/answerdesk/answerdesk/internal/synthesis"
)

type AskRequest struct {
	Question string
	History  []model.Message
	UserID   string
	SiteID   string
	Tags     []string
}

// QAService orchestrates one answered question: retrieve, aggregate
// media, synthesize the event stream, then log the interaction.
type QAService struct {
	retriever   *retrieval.Retriever
	synthesizer *synthesis.Synthesizer
	tickets     *repo.TicketRepo
}

func NewQAService(retriever *retrieval.Retriever, synthesizer *synthesis.Synthesizer, tickets *repo.TicketRepo) *QAService {
	return &QAService{
		retriever:   retriever,
		synthesizer: synthesizer,
		tickets:     tickets,
	}
}

// Retrieve runs retrieval only. Handlers call it before opening the
// event stream so retrieval failures can still surface as plain HTTP
// errors.
func (s *QAService) Retrieve(ctx context.Context, question string) ([]model.RetrievedResult, error) {
	return s.retriever.Retrieve(ctx, question)
}

// Answer streams the synthesized answer over emit and logs the finished
// interaction. A log write failure is reported but never fails an answer
// the user already received.
func (s *QAService) Answer(ctx context.Context, req AskRequest, results []model.RetrievedResult, emit synthesis.EmitFunc) error {
	pool := media.Aggregate(results)
	result, err := s.synthesizer.Synthesize(ctx, req.Question, req.History, results, pool, emit)
	if err != nil {
		return err
	}

	entry := model.Ticket{
		ID:       result.InteractionID,
		Question: req.Question,
		Answer:   result.Answer,
		Chunks:   make([]string, 0, len(results)),
		Sources:  make([]model.SourceScore, 0, len(results)),
		Images:   pool.URLsByKind(model.MediaKindImage),
		Videos:   pool.URLsByKind(model.MediaKindVideo),
		History:  req.History,
		UserID:   req.UserID,
		SiteID:   req.SiteID,
		Tags:     req.Tags,
	}
	for _, r := range results {
		entry.Chunks = append(entry.Chunks, r.Chunk.Text)
		entry.Sources = append(entry.Sources, model.SourceScore{Source: r.Chunk.Source, Score: r.FusedScore})
	}
	if _, err := s.tickets.AppendLog(entry); err != nil {
		logutil.GetLogger(ctx).Warn("interaction log write failed", zap.Error(err))
	}
	return nil
}
