// Package analyst glues retrieval, the decision-protocol prompt, the
// language model, and the report parser into one assessment call.
package analyst

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signalbot/config"
	"signalbot/llm"
	"signalbot/report"
	"signalbot/retrieval"
	"signalbot/types"
)

// Retriever is the slice of the similarity index the analyst needs.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]types.ContentRecord, error)
}

// Assessment carries the raw model report alongside the parsed decision.
type Assessment struct {
	Decision  types.Decision
	RawReport string
	Precedent int // number of context records retrieved
}

// Analyst turns a breaking headline into a structured decision grounded on
// historical precedents from the knowledge base.
type Analyst struct {
	retriever Retriever
	generator llm.Generator
	k         int
}

func New(retriever Retriever, generator llm.Generator, k int) *Analyst {
	if k <= 0 {
		k = config.RetrievalK
	}
	return &Analyst{retriever: retriever, generator: generator, k: k}
}

// Assess retrieves precedents for the headline, runs the decision protocol,
// and parses the structured report. The raw report is returned even when
// parsing fails so callers can log what the model actually said.
func (a *Analyst) Assess(ctx context.Context, headline string) (Assessment, error) {
	records, err := a.retriever.Search(ctx, headline, a.k)
	if err != nil {
		return Assessment{}, fmt.Errorf("precedent retrieval failed: %w", err)
	}

	prompt := fillPrompt(config.SystemPrompt, records, headline)
	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return Assessment{Precedent: len(records)}, fmt.Errorf("report generation failed: %w", err)
	}

	decision, err := report.Parse(raw)
	if err != nil {
		return Assessment{RawReport: raw, Precedent: len(records)}, err
	}

	return Assessment{
		Decision:  *decision,
		RawReport: raw,
		Precedent: len(records),
	}, nil
}

// Chat answers a free-form question over the archive, without the
// structured-report contract.
func (a *Analyst) Chat(ctx context.Context, question string) (string, error) {
	records, err := a.retriever.Search(ctx, question, a.k)
	if err != nil {
		return "", fmt.Errorf("precedent retrieval failed: %w", err)
	}
	return a.generator.Generate(ctx, fillPrompt(config.ChatPrompt, records, question))
}

// fillPrompt renders the context block oldest-first so the most recent
// precedent reads last, right before the input. Rule 0 of the protocol
// leans on that ordering.
func fillPrompt(template string, records []types.ContentRecord, input string) string {
	ordered := make([]types.ContentRecord, len(records))
	copy(ordered, records)
	retrieval.SortOldestFirst(ordered)

	var b strings.Builder
	for _, r := range ordered {
		date := "unknown date"
		if !r.Timestamp.IsZero() {
			date = r.Timestamp.UTC().Format(time.DateOnly)
		}
		fmt.Fprintf(&b, "[%s] %s\n", date, r.BodyText)
	}
	contextBlock := b.String()
	if contextBlock == "" {
		contextBlock = "(no historical precedents found)"
	}

	out := strings.Replace(template, "{context}", contextBlock, 1)
	return strings.Replace(out, "{input}", input, 1)
}
