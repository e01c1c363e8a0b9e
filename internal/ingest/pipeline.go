package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/ai"
	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/vectorstore"
)

// Store is the slice of the vector store the pipeline writes to.
type Store interface {
	Upsert(ctx context.Context, points []vectorstore.Point) error
}

type Report struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Pipeline embeds chunks in batches and upserts them. A failed batch is
// retried once at half size before its chunks are counted as rejected,
// so one oversized or poisoned batch cannot sink a whole seed run.
type Pipeline struct {
	embedder  ai.IEmbedder
	store     Store
	batchSize int
}

func NewPipeline(embedder ai.IEmbedder, store Store, cfg config.IngestConfig) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		batchSize: cfg.BatchSize,
	}
}

func (p *Pipeline) Ingest(ctx context.Context, chunks []model.Chunk) (Report, error) {
	logger := logutil.GetLogger(ctx)
	var report Report
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		if err := p.processBatch(ctx, batch); err == nil {
			report.Accepted += len(batch)
			continue
		} else {
			logger.Warn("batch failed, retrying in halves", zap.Int("size", len(batch)), zap.Error(err))
		}
		half := (len(batch) + 1) / 2
		for _, sub := range [][]model.Chunk{batch[:half], batch[half:]} {
			if len(sub) == 0 {
				continue
			}
			if err := p.processBatch(ctx, sub); err != nil {
				logger.Error("dropping batch", zap.Int("size", len(sub)), zap.Error(err))
				report.Rejected += len(sub)
				continue
			}
			report.Accepted += len(sub)
		}
	}
	logger.Info("ingest finished", zap.Int("accepted", report.Accepted), zap.Int("rejected", report.Rejected))
	return report, nil
}

func (p *Pipeline) processBatch(ctx context.Context, batch []model.Chunk) error {
	texts := make([]string, 0, len(batch))
	for _, chunk := range batch {
		texts = append(texts, chunk.Text)
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
	}
	points := make([]vectorstore.Point, 0, len(batch))
	for i, chunk := range batch {
		points = append(points, vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Text:      chunk.Text,
				Source:    chunk.Source,
				SourceDoc: chunk.SourceDoc,
				ImageURLs: refURLs(chunk.ImageRefs),
				VideoURLs: refURLs(chunk.VideoRefs),
			},
		})
	}
	if err := p.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

func refURLs(refs []model.MediaRef) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}
