package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case AnalysisCompleteMsg:
		return m.handleAnalysisComplete(msg)
	case CountMsg:
		return m.handleCount(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		headline := strings.TrimSpace(m.Input)
		if headline == "" || m.State == StateAnalyzing {
			return m, nil
		}
		m.Headline = headline
		m.Input = ""
		m.Result = nil
		m.Err = nil
		m.State = StateAnalyzing
		m = m.AddLog(fmt.Sprintf("Analyzing: %s", headline))
		return m, analyze(m.Client, headline)

	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			runes := []rune(m.Input)
			m.Input = string(runes[:len(runes)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.Input += " "
		return m, nil

	case tea.KeyRunes:
		m.Input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// handleAnalysisComplete processes the API response
func (m Model) handleAnalysisComplete(msg AnalysisCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		m = m.AddLog(fmt.Sprintf("Analysis failed: %v", msg.Err))
		return m, nil
	}
	m.Result = msg.Result
	m.State = StateResult
	verdict := "no alert"
	if msg.Result.Alert {
		verdict = "ALERT"
	}
	m = m.AddLog(fmt.Sprintf("Decision: %s (impact %d, confidence %d) -> %s",
		msg.Result.Direction, msg.Result.Impact, msg.Result.Confidence, verdict))
	return m, fetchCount(m.Client)
}

// handleCount processes the knowledge-base count
func (m Model) handleCount(msg CountMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		m.KnowledgeCount = msg.Count
	}
	return m, nil
}
