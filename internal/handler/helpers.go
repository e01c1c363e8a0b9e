package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/answerdesk/answerdesk/internal/pkg/errcode"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
	"github.com/answerdesk/answerdesk/internal/pkg/response"
)

// userContext pulls the opaque caller identity headers. No auth: the
// values tag stored entries and filter listings, nothing more.
func userContext(c *gin.Context) (userID, siteID string, tags []string) {
	userID = strings.TrimSpace(c.GetHeader("X-User-ID"))
	siteID = strings.TrimSpace(c.GetHeader("X-Site-ID"))
	for _, tag := range strings.Split(c.GetHeader("X-Tags"), ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return userID, siteID, tags
}

func splitCSV(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, errs.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, errs.ErrEmptyDocument):
		response.Error(c, errcode.ErrEmptyDocument, "document has no content")
	case errors.Is(err, errs.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported document format")
	case errors.Is(err, errs.ErrCorruptDocument):
		response.Error(c, errcode.ErrCorruptDocument, "document could not be read")
	case errors.Is(err, errs.ErrRetrievalUnavailable):
		response.Error(c, errcode.ErrRetrievalUnavailable, "retrieval unavailable")
	case errors.Is(err, errs.ErrSynthesisFailed):
		response.Error(c, errcode.ErrSynthesisFailed, "answer generation failed")
	case errors.Is(err, errs.ErrAIUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
