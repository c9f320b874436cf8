// Package llm provides text-generation collaborators for result
// synthesis. The engine never constructs one of these itself; callers
// build a generator here and pass it explicitly per call.
package llm

import "context"

// Generator produces text from a prompt. It matches the engine's
// TextGenerator interface.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
