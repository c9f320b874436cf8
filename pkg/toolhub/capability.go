package toolhub

import (
	"sort"
	"strings"
)

// capabilityKeywords maps each capability family to the keywords that
// imply it. Matching is deliberately fuzzy: a tool description can land
// in several families at once, and the union of all matches is kept.
var capabilityKeywords = map[string][]string{
	"search":    {"search", "lookup", "find", "query", "retrieve"},
	"web":       {"web", "internet", "online"},
	"research":  {"research", "investigate"},
	"calculate": {"calculate", "compute", "math", "arithmetic"},
	"time":      {"time", "clock", "date", "now", "current"},
	"weather":   {"weather", "forecast", "climate"},
	"document":  {"document", "file", "pdf", "docx", "xlsx"},
	"pdf":       {"pdf", "portable document"},
	"extract":   {"extract", "parse"},
	"analyze":   {"analyze", "analysis", "summary", "summarize"},
	"test":      {"test", "testing", "automation"},
	"webapp":    {"webapp", "web app", "web application"},
	"map":       {"map", "location", "geography"},
	"history":   {"history", "conversation", "previous"},
}

// ExtractCapabilities derives capability tags from a tool's free-text
// description and name. Pure keyword-table lookup over the concatenation
// of both, case-insensitive. If no family matches, a smaller substring
// check against the name alone covers the most common families. If still
// nothing matches, the empty slice is returned; no default tag is forced.
func ExtractCapabilities(description, name string) []string {
	text := strings.ToLower(description + " " + name)

	found := map[string]bool{}
	for cap, keywords := range capabilityKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				found[cap] = true
				break
			}
		}
	}

	if len(found) == 0 {
		nameLower := strings.ToLower(name)
		switch {
		case strings.Contains(nameLower, "search"):
			found["search"] = true
		case strings.Contains(nameLower, "calc"):
			found["calculate"] = true
		case strings.Contains(nameLower, "time"):
			found["time"] = true
		case strings.Contains(nameLower, "weather"):
			found["weather"] = true
		case strings.Contains(nameLower, "pdf"):
			found["pdf"] = true
			found["document"] = true
			found["extract"] = true
		case strings.Contains(nameLower, "test"):
			found["test"] = true
		}
	}

	out := make([]string, 0, len(found))
	for cap := range found {
		out = append(out, cap)
	}
	sort.Strings(out)
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
