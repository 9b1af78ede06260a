// Package llm wraps text generation behind a small interface so the
// decision path can be tested without a live model.
package llm

import "context"

// Generator produces a completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
