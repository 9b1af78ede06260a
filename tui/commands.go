package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// analyze submits the headline to the API in the background
func analyze(client *AnalystClient, headline string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.Analyze(headline)
		return AnalysisCompleteMsg{Result: result, Err: err}
	}
}

// fetchCount asks the API for the current archive size
func fetchCount(client *AnalystClient) tea.Cmd {
	return func() tea.Msg {
		count, err := client.KnowledgeCount()
		return CountMsg{Count: count, Err: err}
	}
}
