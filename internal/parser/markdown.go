package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

type mdSection struct {
	heading string
	body    strings.Builder
	images  []model.MediaRef
}

// parseMarkdown splits the document on top-level and second-level
// headings; each heading opens a section whose images attach to every
// chunk derived from it, mirroring the HTML path.
func (p *Parser) parseMarkdown(path, sourceDoc string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptDocument, err)
	}
	root := goldmark.New().Parser().Parse(gmtext.NewReader(data))

	var sections []*mdSection
	current := &mdSection{}
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok && heading.Level <= 2 {
			if current.heading != "" || current.body.Len() > 0 {
				sections = append(sections, current)
			}
			current = &mdSection{heading: string(heading.Text(data))}
			continue
		}
		p.appendNode(current, node, data)
	}
	if current.heading != "" || current.body.Len() > 0 {
		sections = append(sections, current)
	}

	var chunks []model.Chunk
	index := 1
	for _, section := range sections {
		text := normalizeWhitespace(section.heading + " " + section.body.String())
		if text == "" {
			continue
		}
		texts, err := ChunkText(text, p.chunkSize, p.chunkOverlap)
		if err != nil {
			return nil, err
		}
		for _, t := range texts {
			chunks = append(chunks, model.Chunk{
				Text:      t,
				Source:    chunkSource(sourceDoc, index),
				SourceDoc: sourceDoc,
				ImageRefs: section.images,
			})
			index++
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyDocument, sourceDoc)
	}
	return chunks, nil
}

func (p *Parser) appendNode(section *mdSection, node ast.Node, data []byte) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			section.body.Write(v.Segment.Value(data))
			section.body.WriteByte(' ')
		case *ast.Image:
			if ref, ok := p.markdownImageRef(string(v.Destination)); ok {
				section.images = appendUniqueRef(section.images, ref)
			}
		}
		return ast.WalkContinue, nil
	})
}

func (p *Parser) markdownImageRef(dest string) (model.MediaRef, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "data:") || looksDecorative(dest) {
		return model.MediaRef{}, false
	}
	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") || strings.HasPrefix(dest, "/") {
		return model.MediaRefFromURL(dest, model.MediaKindImage), true
	}
	local := model.MediaURLPrefix + strings.TrimPrefix(dest, "./")
	return model.MediaRef{URL: local, Kind: model.MediaKindImage, Origin: model.MediaOriginLocal}, true
}

func appendUniqueRef(refs []model.MediaRef, ref model.MediaRef) []model.MediaRef {
	for _, existing := range refs {
		if existing.URL == ref.URL {
			return refs
		}
	}
	return append(refs, ref)
}
