// Package router wires the knowledge service HTTP routes.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/lexfisc/lexfisc/internal/knowledge/handler"
	"github.com/lexfisc/lexfisc/pkg/utils/id"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// New builds the gin engine with all knowledge routes registered.
func New(h *handler.KnowledgeHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(requestID(), accessLog(), gin.Recovery())

	engine.GET("/healthz", h.Health)

	v1 := engine.Group("/v1")
	{
		knowledge := v1.Group("/knowledge")
		{
			knowledge.POST("/documents", h.Upload)
			knowledge.GET("/documents", h.ListDocuments)
			knowledge.DELETE("/documents/:id", h.DeleteDocument)
			knowledge.POST("/documents/:id/ingest", h.Ingest)

			knowledge.GET("/jobs/:id", h.JobStatus)

			knowledge.POST("/ask", h.Ask)
			knowledge.GET("/sessions", h.ListSessions)

			knowledge.GET("/stats", h.Stats)
		}
	}

	return engine
}

// requestID propagates the incoming request ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.New()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Next()
	}
}

// accessLog logs one line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
