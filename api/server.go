// Package api exposes the analyst and reconciliation controls over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"signalbot/analyst"
	"signalbot/knowledge"
	"signalbot/reconcile"
)

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	analyst             *analyst.Analyst
	pipeline            *reconcile.Pipeline
	store               *knowledge.Store
	confidenceThreshold int
	impactThreshold     int
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Analyst             *analyst.Analyst
	Pipeline            *reconcile.Pipeline
	Store               *knowledge.Store
	ConfidenceThreshold int
	ImpactThreshold     int
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		analyst:             cfg.Analyst,
		pipeline:            cfg.Pipeline,
		store:               cfg.Store,
		confidenceThreshold: cfg.ConfidenceThreshold,
		impactThreshold:     cfg.ImpactThreshold,
	}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	s.RegisterHealthRoutes(r)
	s.RegisterAnalystRoutes(r)
	s.RegisterReconcileRoutes(r)
	return r
}
