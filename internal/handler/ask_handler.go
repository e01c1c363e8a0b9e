package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/pkg/errcode"
	"github.com/answerdesk/answerdesk/internal/pkg/response"
	"github.com/answerdesk/answerdesk/internal/service"
)

type askRequest struct {
	Question string          `json:"question"`
	History  []model.Message `json:"conversation_history"`
}

type AskHandler struct {
	qa *service.QAService
}

func NewAskHandler(qa *service.QAService) *AskHandler {
	return &AskHandler{qa: qa}
}

// Ask answers a question as an NDJSON event stream. Retrieval runs
// before the stream opens so its failures still map to plain JSON
// errors; once streaming starts, failures travel as error events.
func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		response.Error(c, errcode.ErrInvalid, "question is required")
		return
	}
	ctx := c.Request.Context()

	results, err := h.qa.Retrieve(ctx, req.Question)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)
	encoder := json.NewEncoder(c.Writer)
	emit := func(event interface{}) error {
		if err := encoder.Encode(event); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	userID, siteID, tags := userContext(c)
	askReq := service.AskRequest{
		Question: req.Question,
		History:  sanitizeHistory(req.History),
		UserID:   userID,
		SiteID:   siteID,
		Tags:     tags,
	}
	if err := h.qa.Answer(ctx, askReq, results, emit); err != nil {
		logutil.GetLogger(ctx).Error("answer stream aborted", zap.Error(err))
	}
}

func sanitizeHistory(history []model.Message) []model.Message {
	cleaned := make([]model.Message, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			msg.Role = model.RoleUser
		}
		cleaned = append(cleaned, msg)
	}
	return cleaned
}
