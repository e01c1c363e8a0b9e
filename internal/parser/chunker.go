package parser

import (
	"fmt"
	"strings"

	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// ChunkText splits text into windows of size runes advancing by
// size-overlap. The final window may be shorter and is still emitted.
// Output is deterministic for a given input; seeding relies on that to
// inspect idempotence across runs.
func ChunkText(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than size %d", errs.ErrInvalid, overlap, size)
	}
	text = normalizeWhitespace(text)
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
