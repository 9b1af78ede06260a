package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// State represents the console state machine
type State string

const (
	StateReady     State = "ready"
	StateAnalyzing State = "analyzing"
	StateResult    State = "result"
	StateError     State = "error"
)

// Model represents the console state (thin client)
type Model struct {
	Client *AnalystClient

	State    State
	Input    string
	Headline string
	Result   *AnalyzeResult
	Err      error

	KnowledgeCount int
	Logs           []string
}

// NewModel creates a new console model
func NewModel(apiURL string) Model {
	return Model{
		Client: NewAnalystClient(apiURL),
		State:  StateReady,
		Logs:   make([]string, 0),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return fetchCount(m.Client)
}

// AddLog appends a timestamped log line, keeping the last 10.
func (m Model) AddLog(msg string) Model {
	m.Logs = append(m.Logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg))
	if len(m.Logs) > 10 {
		m.Logs = m.Logs[len(m.Logs)-10:]
	}
	return m
}
