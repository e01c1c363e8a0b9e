package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/answerdesk/answerdesk/internal/ingest"
	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/parser"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

type UpsertRequest struct {
	Text      string
	Source    string
	ImageURLs []string
	VideoURLs []string
}

// IngestService feeds documents into the vector store: whole-directory
// seeding for the seed command and the reseed job, and single-document
// upserts for the API.
type IngestService struct {
	parser       *parser.Parser
	pipeline     *ingest.Pipeline
	chunkSize    int
	chunkOverlap int
}

func NewIngestService(p *parser.Parser, pipeline *ingest.Pipeline, chunkSize, chunkOverlap int) *IngestService {
	return &IngestService{
		parser:       p,
		pipeline:     pipeline,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// SeedDir parses every supported document under dir and ingests the
// resulting chunks.
func (s *IngestService) SeedDir(ctx context.Context, dir string) (ingest.Report, error) {
	chunks, err := s.parser.ParseDir(ctx, dir)
	if err != nil {
		return ingest.Report{}, err
	}
	if len(chunks) == 0 {
		return ingest.Report{}, nil
	}
	return s.pipeline.Ingest(ctx, chunks)
}

// Upsert chunks one raw document and ingests it. Media URLs attach to
// every chunk of the document.
func (s *IngestService) Upsert(ctx context.Context, req UpsertRequest) (ingest.Report, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return ingest.Report{}, fmt.Errorf("%w: source is required", errs.ErrInvalid)
	}
	texts, err := parser.ChunkText(req.Text, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return ingest.Report{}, err
	}
	if len(texts) == 0 {
		return ingest.Report{}, fmt.Errorf("%w: %s", errs.ErrEmptyDocument, source)
	}
	images := make([]model.MediaRef, 0, len(req.ImageURLs))
	for _, url := range req.ImageURLs {
		images = append(images, model.MediaRefFromURL(url, model.MediaKindImage))
	}
	videos := make([]model.MediaRef, 0, len(req.VideoURLs))
	for _, url := range req.VideoURLs {
		videos = append(videos, model.MediaRefFromURL(url, model.MediaKindVideo))
	}
	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.Chunk{
			Text:      text,
			Source:    fmt.Sprintf("%s#chunk-%d", source, i+1),
			SourceDoc: source,
			ImageRefs: images,
			VideoRefs: videos,
		})
	}
	return s.pipeline.Ingest(ctx, chunks)
}
