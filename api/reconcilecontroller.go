package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"signalbot/reconcile"
)

// RegisterReconcileRoutes registers the reconciliation control routes.
func (s *Server) RegisterReconcileRoutes(r *gin.Engine) {
	g := r.Group("/api/reconcile")
	g.POST("/run", s.handleReconcileRun)
	g.GET("/status", s.handleReconcileStatus)
}

// handleReconcileRun kicks off a cycle and returns immediately; progress is
// visible through the status endpoint.
func (s *Server) handleReconcileRun(c *gin.Context) {
	if s.pipeline.State().GetState() != reconcile.StateIdle &&
		s.pipeline.State().GetState() != reconcile.StateError {
		c.JSON(http.StatusConflict, gin.H{"error": "reconciliation cycle already running"})
		return
	}

	go func() {
		if err := s.pipeline.Run(context.Background()); err != nil && err != reconcile.ErrCycleRunning {
			log.Printf("Manual reconciliation failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleReconcileStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.State().GetStatus())
}
