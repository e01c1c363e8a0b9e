package parser

import (
	"fmt"
	"os"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

func (p *Parser) parseText(path, sourceDoc string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptDocument, err)
	}
	texts, err := ChunkText(string(data), p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyDocument, sourceDoc)
	}
	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.Chunk{
			Text:      text,
			Source:    chunkSource(sourceDoc, i+1),
			SourceDoc: sourceDoc,
		})
	}
	return chunks, nil
}
