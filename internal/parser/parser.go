package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// Parser normalises source documents (plain text, markdown, HTML, PDF)
// into ordered chunks with aligned media references.
type Parser struct {
	chunkSize    int
	chunkOverlap int
	minImageArea int
	extractedDir string
}

func New(cfg config.ParserConfig, extractedDir string) *Parser {
	return &Parser{
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		minImageArea: cfg.MinImageArea,
		extractedDir: extractedDir,
	}
}

// ParseFile converts one document into chunks. Parse failures are
// per-document: callers batch over many files and skip the ones that
// return an error.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]model.Chunk, error) {
	sourceDoc := "kb/" + filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return p.parseText(path, sourceDoc)
	case ".md", ".markdown":
		return p.parseMarkdown(path, sourceDoc)
	case ".html", ".htm":
		return p.parseHTML(path, sourceDoc)
	case ".pdf":
		return p.parsePDF(ctx, path, sourceDoc)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseDir walks every supported document under dir. Documents that fail
// to parse are skipped and logged; the rest proceed.
func (p *Parser) ParseDir(ctx context.Context, dir string) ([]model.Chunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("dir", dir))
	matches, err := listDocuments(dir)
	if err != nil {
		return nil, err
	}
	var all []model.Chunk
	for _, path := range matches {
		chunks, err := p.ParseFile(ctx, path)
		if err != nil {
			logger.Warn("skipping document", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		logger.Info("parsed document", zap.String("file", filepath.Base(path)), zap.Int("chunks", len(chunks)))
		all = append(all, chunks...)
	}
	return all, nil
}

func listDocuments(dir string) ([]string, error) {
	var matches []string
	for _, pattern := range []string{"*.txt", "*.md", "*.markdown", "*.html", "*.htm", "*.pdf"} {
		found, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}
	return matches, nil
}

func chunkSource(sourceDoc string, index int) string {
	return fmt.Sprintf("%s#chunk-%d", sourceDoc, index)
}
