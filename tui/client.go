// Package tui is the interactive analyst console: a thin client over the
// signalbot HTTP API.
package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AnalystClient is a thin HTTP client for the signalbot API
type AnalystClient struct {
	baseURL string
	client  *http.Client
}

// NewAnalystClient creates a new API client
func NewAnalystClient(baseURL string) *AnalystClient {
	return &AnalystClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// AnalyzeResult mirrors the /api/analyze response body.
type AnalyzeResult struct {
	Direction  string `json:"direction"`
	Impact     int    `json:"impact"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
	Alert      bool   `json:"alert"`
	Precedents int    `json:"precedents"`
	RawReport  string `json:"raw_report"`
}

// Analyze submits a headline for a structured assessment.
func (c *AnalystClient) Analyze(headline string) (*AnalyzeResult, error) {
	body, err := json.Marshal(map[string]string{"headline": headline})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Post(c.baseURL+"/api/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result AnalyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// KnowledgeCount returns the number of records in the archive.
func (c *AnalystClient) KnowledgeCount() (int, error) {
	resp, err := c.client.Get(c.baseURL + "/api/knowledge/count")
	if err != nil {
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.Count, nil
}
