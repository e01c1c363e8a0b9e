package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Ask     *AskHandler
	Ingest  *IngestHandler
	Tickets *TicketHandler
	Media   *MediaHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/ask", deps.Ask.Ask)
	api.POST("/upsert", deps.Ingest.Upsert)

	api.POST("/feedback", deps.Tickets.Feedback)
	api.POST("/create-ticket", deps.Tickets.Create)
	api.GET("/tickets", deps.Tickets.List)
	api.GET("/tickets/:id", deps.Tickets.Get)
	api.GET("/logs", deps.Tickets.Logs)

	api.GET("/media/*path", deps.Media.Serve)
	api.GET("/health", Health)
}
