package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrEmptyDocument
	ErrUnsupportedFormat
	ErrCorruptDocument
	ErrIngestFailed
	ErrRetrievalUnavailable
	ErrSynthesisFailed
	ErrAIUnavailable
)
