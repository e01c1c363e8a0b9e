package service

import (
	"fmt"
	"strings"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
	"github.com/answerdesk/answerdesk/internal/repo"
)

var ticketCategories = map[string]struct{}{
	"technical": {},
	"account":   {},
	"billing":   {},
	"general":   {},
}

var ticketSeverities = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

type CreateTicketRequest struct {
	Title       string
	Category    string
	Severity    string
	Description string
	Question    string
	Answer      string
	UserID      string
	SiteID      string
	Tags        []string
}

type FeedbackRequest struct {
	InteractionID string
	Feedback      string
	Rating        *int
}

// TicketService validates and stores support tickets and feedback on
// answered interactions.
type TicketService struct {
	tickets *repo.TicketRepo
}

func NewTicketService(tickets *repo.TicketRepo) *TicketService {
	return &TicketService{tickets: tickets}
}

func (s *TicketService) Create(req CreateTicketRequest) (model.Ticket, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Ticket{}, fmt.Errorf("%w: title is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(req.Description) == "" {
		return model.Ticket{}, fmt.Errorf("%w: description is required", errs.ErrInvalid)
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = "general"
	}
	if _, ok := ticketCategories[category]; !ok {
		return model.Ticket{}, fmt.Errorf("%w: unknown category %q", errs.ErrInvalid, req.Category)
	}
	severity := strings.ToLower(strings.TrimSpace(req.Severity))
	if severity == "" {
		severity = "medium"
	}
	if _, ok := ticketSeverities[severity]; !ok {
		return model.Ticket{}, fmt.Errorf("%w: unknown severity %q", errs.ErrInvalid, req.Severity)
	}
	return s.tickets.CreateTicket(model.Ticket{
		Title:       title,
		Category:    category,
		Severity:    severity,
		Description: req.Description,
		Question:    req.Question,
		Answer:      req.Answer,
		UserID:      req.UserID,
		SiteID:      req.SiteID,
		Tags:        req.Tags,
	})
}

func (s *TicketService) Feedback(req FeedbackRequest) (model.Ticket, error) {
	if strings.TrimSpace(req.InteractionID) == "" {
		return model.Ticket{}, fmt.Errorf("%w: interaction_id is required", errs.ErrInvalid)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return model.Ticket{}, fmt.Errorf("%w: rating must be between 1 and 5", errs.ErrInvalid)
	}
	return s.tickets.SetFeedback(req.InteractionID, strings.TrimSpace(req.Feedback), req.Rating)
}

func (s *TicketService) Get(id string) (model.Ticket, error) {
	if strings.TrimSpace(id) == "" {
		return model.Ticket{}, fmt.Errorf("%w: ticket id is required", errs.ErrInvalid)
	}
	return s.tickets.Get(id)
}

// ListTickets returns user-created tickets; ListLogs returns answered
// interaction logs. Both accept the same filter surface.
func (s *TicketService) ListTickets(filter repo.ListFilter) ([]model.Ticket, error) {
	filter.Type = model.EntryTypeTicket
	return s.tickets.List(filter)
}

func (s *TicketService) ListLogs(filter repo.ListFilter) ([]model.Ticket, error) {
	filter.Type = model.EntryTypeLog
	return s.tickets.List(filter)
}
