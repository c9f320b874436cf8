package toolhub

import (
	"fmt"
	"strings"
)

var suspiciousErrorMarkers = []string{"timeout", "failed", "exception", "error"}

// payloadKeys are map keys that suggest a structured result actually
// carries useful data.
var payloadKeys = []string{"results", "data", "content", "items"}

// pickBest tie-breaks among several race-mode results. Failures, results
// whose error text looks suspicious, and near-empty values are excluded;
// the rest are scored on length, structure, and candidate priority.
// Ties keep the first candidate encountered in batch order.
func (h *Hub) pickBest(results map[int]Result, cands []*Candidate, batch []int) (int, bool) {
	bestIdx := -1
	bestScore := -1.0

	for _, idx := range batch {
		res, ok := results[idx]
		if !ok || !res.Success {
			continue
		}
		if res.Error != "" && containsAny(strings.ToLower(res.Error), suspiciousErrorMarkers) {
			continue
		}

		text := strings.TrimSpace(stringifyValue(res.Value))
		if len(text) < 3 {
			continue
		}

		score := 0.5*lengthScore(len(text)) + 0.2*qualityScore(res.Value) + 0.3*priorityScore(cands[idx].Priority)
		if score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}

	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}

// lengthScore favors the 10..500 character range; very short results are
// penalized and very long ones degrade progressively.
func lengthScore(n int) float64 {
	switch {
	case n < 10:
		return 0.3
	case n <= 500:
		return float64(n) / 500.0
	case n <= 2000:
		return 0.8 - float64(n-500)/1500.0*0.3
	default:
		over := float64(n-2000) / 5000.0
		if over > 0.5 {
			over = 0.5
		}
		return 0.5 * (1.0 - over)
	}
}

func qualityScore(v any) float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	for _, k := range payloadKeys {
		if _, found := m[k]; found {
			return 0.3
		}
	}
	return 0.2
}

func priorityScore(priority int) float64 {
	return 1.0 / float64(1+priority)
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}
