package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
