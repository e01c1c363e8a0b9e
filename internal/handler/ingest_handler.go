package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/answerdesk/answerdesk/internal/pkg/errcode"
	"github.com/answerdesk/answerdesk/internal/pkg/response"
	"github.com/answerdesk/answerdesk/internal/service"
)

type upsertRequest struct {
	Text      string   `json:"text"`
	Source    string   `json:"source"`
	ImageURLs []string `json:"image_urls"`
	VideoURLs []string `json:"video_urls"`
}

type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

func (h *IngestHandler) Upsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	report, err := h.ingest.Upsert(c.Request.Context(), service.UpsertRequest{
		Text:      req.Text,
		Source:    req.Source,
		ImageURLs: req.ImageURLs,
		VideoURLs: req.VideoURLs,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
