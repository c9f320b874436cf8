package toolhub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// synthesisTimeout bounds the optional model-assisted merge.
	synthesisTimeout = 10 * time.Second
	// mergeBudget is the combined stringified length past which the
	// engine skips any model call and merges deterministically.
	mergeBudget = 2000
	// mergeMaxResults is the success count past which the same applies.
	mergeMaxResults = 3
)

// synthesize merges multiple batch results into one. Only successes are
// considered. Zero successes returns the first failure verbatim, one
// success passes through untouched, and two or more are merged: through
// the caller-supplied generator when one was given and the inputs are
// small enough, deterministically otherwise.
func (h *Hub) synthesize(ctx context.Context, results []Result, name string, input any, gen TextGenerator) Result {
	if len(results) == 0 {
		return Result{Success: false, Error: "no_results_to_synthesize"}
	}
	if len(results) == 1 {
		return results[0]
	}

	successes := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Success {
			successes = append(successes, r)
		}
	}
	if len(successes) == 0 {
		return results[0]
	}
	if len(successes) == 1 {
		return successes[0]
	}

	totalLen := 0
	for _, r := range successes {
		totalLen += len(stringifyValue(r.Value))
	}
	if len(successes) > mergeMaxResults || totalLen > mergeBudget {
		log.Info().
			Str("tool", name).
			Int("results", len(successes)).
			Int("total_length", totalLen).
			Msg("Result set too large for model synthesis, merging directly")
		return simpleMerge(successes)
	}

	if gen == nil {
		// No collaborator supplied; the engine never substitutes an
		// implicit default model.
		return simpleMerge(successes)
	}

	prompt := buildSynthesisPrompt(successes, name, input)
	genCtx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	merged, err := gen.Generate(genCtx, prompt)
	if err != nil {
		log.Warn().
			Str("tool", name).
			Err(err).
			Msg("Model synthesis failed, falling back to direct merge")
		return simpleMerge(successes)
	}
	merged = strings.TrimSpace(merged)
	if merged == "" {
		return simpleMerge(successes)
	}

	return Result{
		Success: true,
		Value:   merged,
		Meta: map[string]any{
			"synthesized":  true,
			"source_count": len(successes),
			"sources":      resultSources(successes),
		},
	}
}

// simpleMerge concatenates each success, truncated and labeled by source.
// Deterministic: used whenever no generator is available or the model
// path is skipped or fails.
func simpleMerge(successes []Result) Result {
	parts := make([]string, 0, len(successes))
	for i, res := range successes {
		parts = append(parts, fmt.Sprintf("[source %d (%s)]: %s",
			i+1, resultSource(res), truncate(stringifyValue(res.Value), 300)))
	}

	return Result{
		Success: true,
		Value:   strings.Join(parts, "\n\n"),
		Meta: map[string]any{
			"synthesized":      true,
			"synthesis_method": "simple_merge",
			"source_count":     len(successes),
			"sources":          resultSources(successes),
		},
	}
}

// buildSynthesisPrompt assembles a bounded prompt for the generator.
// Excerpt budgets depend on the tool family: deterministic calculator
// output needs almost nothing, search output benefits from more context.
func buildSynthesisPrompt(successes []Result, name string, input any) string {
	nameLower := strings.ToLower(name)

	maxLen := 250
	switch {
	case containsAny(nameLower, synthCalcKeywords):
		maxLen = 100
	case strings.Contains(nameLower, "search") || strings.Contains(nameLower, "web"):
		maxLen = 300
		if len(successes) > 2 {
			maxLen = 200
		}
	case strings.Contains(nameLower, "extract") || strings.Contains(nameLower, "pdf"):
		maxLen = 300
	}

	var b strings.Builder
	b.WriteString("You are an information synthesis assistant. Combine the following tool outputs into one accurate, complete answer.\n\n")
	fmt.Fprintf(&b, "Original query: %s\n\n", truncate(stringifyValue(input), 200))
	b.WriteString("Tool outputs:\n")
	for i, res := range successes {
		fmt.Fprintf(&b, "Tool %d (%s):\n%s\n\n",
			i+1, resultSource(res), truncate(stringifyValue(res.Value), maxLen))
	}
	b.WriteString("Merge overlapping information, point out conflicts, and integrate complementary details. Reply with the final answer only.")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... (truncated)"
}

func resultSource(r Result) string {
	if r.Meta != nil {
		if s, ok := r.Meta["source"].(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

func resultSources(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, resultSource(r))
	}
	return out
}
