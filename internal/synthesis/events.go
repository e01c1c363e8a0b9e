package synthesis

// Event stream wire shapes: one JSON object per line, discriminated by
// the type field. Ordering per answer: exactly one metadata event first,
// then tokens, then at most one suggestions event, then exactly one
// terminal done or error event.

const (
	EventTypeMetadata    = "metadata"
	EventTypeToken       = "token"
	EventTypeSuggestions = "suggestions"
	EventTypeDone        = "done"
	EventTypeError       = "error"
)

// EmitFunc delivers one event to the caller. An error from emit means
// the consumer is gone; the synthesizer stops forwarding immediately.
type EmitFunc func(event interface{}) error

type SourceInfo struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type MetadataEvent struct {
	Type          string       `json:"type"`
	InteractionID string       `json:"interaction_id"`
	Sources       []SourceInfo `json:"sources"`
	Chunks        []string     `json:"chunks"`
	Images        []string     `json:"images"`
	Videos        []string     `json:"videos"`
}

type TokenEvent struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type SuggestionsEvent struct {
	Type        string   `json:"type"`
	Suggestions []string `json:"suggestions"`
}

type StepImage struct {
	Step int    `json:"step"`
	URL  string `json:"url"`
}

type DoneEvent struct {
	Type          string      `json:"type"`
	InteractionID string      `json:"interaction_id"`
	StepImages    []StepImage `json:"step_images"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
