package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"signalbot/report"
)

// AnalyzeRequest is the POST /api/analyze payload.
type AnalyzeRequest struct {
	Headline string `json:"headline"`
}

// AnalyzeResponse carries the structured decision plus the alert verdict.
type AnalyzeResponse struct {
	Direction  string `json:"direction"`
	Impact     int    `json:"impact"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
	Alert      bool   `json:"alert"`
	Precedents int    `json:"precedents"`
	RawReport  string `json:"raw_report"`
}

// RegisterAnalystRoutes registers the on-demand analysis routes.
func (s *Server) RegisterAnalystRoutes(r *gin.Engine) {
	r.POST("/api/analyze", s.handleAnalyze)
	r.POST("/api/chat", s.handleChat)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Headline = strings.TrimSpace(req.Headline)
	if req.Headline == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "headline is required"})
		return
	}

	assessment, err := s.analyst.Assess(c.Request.Context(), req.Headline)
	if err != nil {
		if _, ok := err.(*report.ParseError); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"raw_report": assessment.RawReport,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		Direction:  assessment.Decision.Direction,
		Impact:     assessment.Decision.Impact,
		Confidence: assessment.Decision.Confidence,
		Analysis:   assessment.Decision.Analysis,
		Alert:      report.ShouldAlert(assessment.Decision, s.confidenceThreshold, s.impactThreshold),
		Precedents: assessment.Precedent,
		RawReport:  assessment.RawReport,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := s.analyst.Chat(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
