package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/answerdesk/answerdesk/internal/mediastore"
)

type MediaHandler struct {
	store *mediastore.Store
}

func NewMediaHandler(store *mediastore.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) Serve(c *gin.Context) {
	full, err := h.store.Resolve(c.Param("path"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.File(full)
}
