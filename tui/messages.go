package tui

// Messages for the tea program

// AnalysisCompleteMsg is sent when the API returns an assessment
type AnalysisCompleteMsg struct {
	Result *AnalyzeResult
	Err    error
}

// CountMsg is sent when the knowledge-base count arrives
type CountMsg struct {
	Count int
	Err   error
}
