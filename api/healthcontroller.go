package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes registers liveness and knowledge-base routes.
func (s *Server) RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/knowledge/count", s.handleKnowledgeCount)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleKnowledgeCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.store.Count()})
}
