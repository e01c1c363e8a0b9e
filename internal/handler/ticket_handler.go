package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/answerdesk/answerdesk/internal/pkg/errcode"
	"github.com/answerdesk/answerdesk/internal/pkg/response"
	"github.com/answerdesk/answerdesk/internal/repo"
	"github.com/answerdesk/answerdesk/internal/service"
)

type createTicketRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

type feedbackRequest struct {
	InteractionID string `json:"interaction_id"`
	Feedback      string `json:"feedback"`
	Rating        *int   `json:"rating"`
}

type TicketHandler struct {
	tickets *service.TicketService
}

func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	userID, siteID, tags := userContext(c)
	ticket, err := h.tickets.Create(service.CreateTicketRequest{
		Title:       req.Title,
		Category:    req.Category,
		Severity:    req.Severity,
		Description: req.Description,
		Question:    req.Question,
		Answer:      req.Answer,
		UserID:      userID,
		SiteID:      siteID,
		Tags:        tags,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ticket)
}

func (h *TicketHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	entry, err := h.tickets.Feedback(service.FeedbackRequest{
		InteractionID: req.InteractionID,
		Feedback:      req.Feedback,
		Rating:        req.Rating,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.tickets.Get(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ticket)
}

func (h *TicketHandler) List(c *gin.Context) {
	tickets, err := h.tickets.ListTickets(listFilter(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tickets)
}

func (h *TicketHandler) Logs(c *gin.Context) {
	logs, err := h.tickets.ListLogs(listFilter(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, logs)
}

// listFilter reads query-string filters; the caller identity headers
// act as defaults so clients filter to their own entries for free.
func listFilter(c *gin.Context) repo.ListFilter {
	userID, siteID, tags := userContext(c)
	if v := c.Query("user_id"); v != "" {
		userID = v
	}
	if v := c.Query("site_id"); v != "" {
		siteID = v
	}
	if v := c.Query("tags"); v != "" {
		tags = nil
		for _, tag := range splitCSV(v) {
			tags = append(tags, tag)
		}
	}
	return repo.ListFilter{
		UserID:   userID,
		SiteID:   siteID,
		Tags:     tags,
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
}
