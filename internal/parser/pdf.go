package parser

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// parsePDF concatenates per-page plain text and chunks the result.
// Embedded images are extracted best-effort into the extracted-media
// directory; a failed image never fails the document. All extracted
// images attach to the first chunk: PDFs carry no section structure to
// scope them any tighter.
func (p *Parser) parsePDF(ctx context.Context, path, sourceDoc string) ([]model.Chunk, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("doc", sourceDoc))
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptDocument, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("unreadable pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteByte(' ')
	}

	texts, err := ChunkText(sb.String(), p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyDocument, sourceDoc)
	}

	images := p.extractPDFImages(ctx, reader, filepath.Base(path))

	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		chunk := model.Chunk{
			Text:      text,
			Source:    chunkSource(sourceDoc, i+1),
			SourceDoc: sourceDoc,
		}
		if i == 0 {
			chunk.ImageRefs = images
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// extractPDFImages walks each page's XObject resources and decodes the
// image streams it understands (8-bit flate, gray or rgb). The pdf
// library panics on filters it cannot apply, so every image is decoded
// inside its own recover guard.
func (p *Parser) extractPDFImages(ctx context.Context, reader *pdf.Reader, docName string) []model.MediaRef {
	logger := logutil.GetLogger(ctx).With(zap.String("doc", docName))
	if p.extractedDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.extractedDir, 0o755); err != nil {
		logger.Warn("create extracted media dir failed", zap.Error(err))
		return nil
	}
	base := strings.TrimSuffix(docName, filepath.Ext(docName))
	var refs []model.MediaRef
	seq := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		xobjects := page.Resources().Key("XObject")
		if xobjects.Kind() != pdf.Dict {
			continue
		}
		for _, name := range xobjects.Keys() {
			obj := xobjects.Key(name)
			if obj.Key("Subtype").Name() != "Image" {
				continue
			}
			seq++
			fileName := fmt.Sprintf("%s-p%d-%d.png", sanitizeName(base), i, seq)
			if err := p.writePDFImage(obj, filepath.Join(p.extractedDir, fileName)); err != nil {
				logger.Debug("skipping pdf image", zap.Int("page", i), zap.String("object", name), zap.Error(err))
				continue
			}
			refs = append(refs, model.MediaRef{
				URL:    model.ExtractedMediaURLPrefix + fileName,
				Kind:   model.MediaKindImage,
				Origin: model.MediaOriginExtracted,
			})
		}
	}
	return refs
}

func (p *Parser) writePDFImage(obj pdf.Value, dest string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode image: %v", r)
		}
	}()
	if obj.Key("Filter").Name() != "FlateDecode" {
		return fmt.Errorf("unsupported filter %q", obj.Key("Filter").Name())
	}
	if bits := obj.Key("BitsPerComponent").Int64(); bits != 8 {
		return fmt.Errorf("unsupported bit depth %d", bits)
	}
	width := int(obj.Key("Width").Int64())
	height := int(obj.Key("Height").Int64())
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if width*height < p.minImageArea {
		return fmt.Errorf("below icon threshold: %dx%d", width, height)
	}

	var channels int
	switch obj.Key("ColorSpace").Name() {
	case "DeviceRGB":
		channels = 3
	case "DeviceGray":
		channels = 1
	default:
		return fmt.Errorf("unsupported color space %q", obj.Key("ColorSpace").Name())
	}

	data, err := io.ReadAll(obj.Reader())
	if err != nil {
		return err
	}
	if len(data) < width*height*channels {
		return fmt.Errorf("truncated image stream: %d bytes", len(data))
	}

	var img image.Image
	if channels == 3 {
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				off := (y*width + x) * 3
				rgba.Set(x, y, color.RGBA{R: data[off], G: data[off+1], B: data[off+2], A: 255})
			}
		}
		img = rgba
	} else {
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, data[:width*height])
		img = gray
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
