package model

// Chunk is a bounded span of source text plus the media that illustrates it.
// Chunks are immutable once produced by the parser; identity is
// (Source, sequence index encoded in Source).
type Chunk struct {
	Text      string     `json:"text"`
	Source    string     `json:"source"`
	SourceDoc string     `json:"source_doc"`
	ImageRefs []MediaRef `json:"image_refs,omitempty"`
	VideoRefs []MediaRef `json:"video_refs,omitempty"`
}

// RetrievedResult is a per-query scored chunk. It is never persisted.
type RetrievedResult struct {
	Chunk         Chunk
	SemanticScore *float64
	LexicalScore  *float64
	FusedScore    float64
	Rank          int
}
