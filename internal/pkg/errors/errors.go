package errors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalid              = errors.New("invalid")
	ErrEmptyDocument        = errors.New("empty document")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrCorruptDocument      = errors.New("corrupt document")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrSynthesisFailed      = errors.New("synthesis failed")
	ErrAIUnavailable        = errors.New("ai unavailable")
	ErrInternal             = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsParseError reports whether err is one of the per-document parse
// failures that batch ingestion recovers from by skipping the document.
func IsParseError(err error) bool {
	return errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCorruptDocument)
}
