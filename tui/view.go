package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render("📈 Signalbot Analyst Console"))
	b.WriteString("\n\n")

	// Archive size
	if m.KnowledgeCount > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("📚 Knowledge base: %d record(s)", m.KnowledgeCount)))
		b.WriteString("\n\n")
	}

	// Current state
	switch m.State {
	case StateAnalyzing:
		b.WriteString(StatusStyle.Render(fmt.Sprintf("⏳ Analyzing: %s", m.Headline)))
		b.WriteString("\n\n")
	case StateError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("❌ Error: %v", m.Err)))
		b.WriteString("\n\n")
	case StateResult:
		if m.Result != nil {
			b.WriteString(BoxStyle.Render(m.formatResult()))
			b.WriteString("\n\n")
		}
	}

	// Input line
	b.WriteString(HighlightStyle.Render("Headline:"))
	b.WriteString(" " + m.Input + "▌")
	b.WriteString("\n\n")

	// Logs
	if len(m.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, logMsg := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + logMsg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render("Type a headline and press Enter | Esc or Ctrl+C to quit"))
	return b.String()
}

// formatResult renders the structured decision box
func (m Model) formatResult() string {
	r := m.Result
	var b strings.Builder

	verdict := InfoStyle.Render("below thresholds, no alert")
	if r.Alert {
		verdict = HighlightStyle.Render("🚨 ALERT")
	}

	b.WriteString(HighlightStyle.Render("Structured Analysis Report"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Headline:   %s\n", m.Headline))
	b.WriteString(fmt.Sprintf("Direction:  %s\n", StatusStyle.Render(r.Direction)))
	b.WriteString(fmt.Sprintf("Impact:     %d/10\n", r.Impact))
	b.WriteString(fmt.Sprintf("Confidence: %d/10\n", r.Confidence))
	b.WriteString(fmt.Sprintf("Precedents: %d\n\n", r.Precedents))
	b.WriteString(fmt.Sprintf("Analysis: %s\n\n", r.Analysis))
	b.WriteString(fmt.Sprintf("Verdict: %s", verdict))

	return b.String()
}
