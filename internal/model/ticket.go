package model

// Entry types in the ticket store. Interaction logs and user-created
// support tickets share one append-only file but are listed separately.
const (
	EntryTypeLog    = "log"
	EntryTypeTicket = "ticket"
)

type SourceScore struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Ticket is one entry of the ticket store: either a Q&A interaction log
// or a user-created support ticket.
type Ticket struct {
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	TicketNumber string        `json:"ticket_number,omitempty"`
	Title        string        `json:"title,omitempty"`
	Category     string        `json:"category,omitempty"`
	Severity     string        `json:"severity,omitempty"`
	Description  string        `json:"description,omitempty"`
	Question     string        `json:"question"`
	Answer       string        `json:"answer,omitempty"`
	Chunks       []string      `json:"chunks"`
	Sources      []SourceScore `json:"sources"`
	Images       []string      `json:"images,omitempty"`
	Videos       []string      `json:"videos,omitempty"`
	CreatedAt    string        `json:"created_at"`
	Feedback     string        `json:"feedback,omitempty"`
	Rating       *int          `json:"rating,omitempty"`
	FeedbackAt   string        `json:"feedback_at,omitempty"`
	History      []Message     `json:"conversation_history,omitempty"`
	UserID       string        `json:"user_id,omitempty"`
	SiteID       string        `json:"site_id,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
}
