package toolhub

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Hub dispatches tool calls across interchangeable, priority-ordered
// candidates. Construct one explicitly with New and inject it where
// needed; there is no process-wide instance.
type Hub struct {
	byName map[string][]*Candidate
	byCap  map[string][]*Candidate

	history  *historyCache
	metrics  MetricsCollector
	tracer   Tracer
	timeouts TimeoutSource
	shuffler Shuffler
}

// New creates an empty Hub. Registration is expected to happen during a
// setup phase that never overlaps execution; lookups afterwards need no
// synchronization.
func New(opts ...Option) *Hub {
	h := &Hub{
		byName:   make(map[string][]*Candidate),
		byCap:    make(map[string][]*Candidate),
		history:  newHistoryCache(),
		metrics:  nopMetrics{},
		tracer:   nopTracer{},
		timeouts: StaticTimeout(DefaultTimeout),
		shuffler: newDefaultShuffler(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type compiledSchema struct {
	schema *gojsonschema.Schema
}

// Register adds a candidate under its name and under each of its
// capability tags. The name list is re-stable-sorted by priority; the
// capability lists are deduplicated by (name, source).
func (h *Hub) Register(cand Candidate) error {
	if cand.Name == "" {
		return fmt.Errorf("candidate name cannot be empty")
	}
	if cand.Exec == nil {
		return fmt.Errorf("candidate %s has no executable", cand.Name)
	}

	if raw, ok := cand.Metadata["input_schema"]; ok {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
		if err != nil {
			return fmt.Errorf("invalid input schema for %s: %w", cand.Name, err)
		}
		cand.schema = &compiledSchema{schema: schema}
	}

	c := &cand
	arr := append(h.byName[c.Name], c)
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].Priority < arr[j].Priority })
	h.byName[c.Name] = arr

	for _, tag := range c.Capabilities {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		h.byCap[tag] = dedupeCandidates(append(h.byCap[tag], c))
	}

	log.Info().
		Str("tool", c.Name).
		Str("source", string(c.Source)).
		Int("priority", c.Priority).
		Strs("capabilities", c.Capabilities).
		Msg("Candidate registered")

	return nil
}

func dedupeCandidates(cands []*Candidate) []*Candidate {
	type key struct {
		name   string
		source Source
	}
	seen := make(map[key]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		k := key{c.Name, c.Source}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Has reports whether at least one candidate is registered under name.
func (h *Hub) Has(name string) bool {
	return len(h.byName[name]) > 0
}

// ToolInfo describes one registered tool name for diagnostics.
type ToolInfo struct {
	Name       string          `json:"name"`
	Candidates []CandidateInfo `json:"candidates"`
}

// CandidateInfo describes one candidate for diagnostics.
type CandidateInfo struct {
	Source       Source         `json:"source"`
	Priority     int            `json:"priority"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// List returns all registered tools and their candidates, sorted by name.
func (h *Hub) List() []ToolInfo {
	out := make([]ToolInfo, 0, len(h.byName))
	for name, cands := range h.byName {
		info := ToolInfo{Name: name}
		for _, c := range cands {
			info.Candidates = append(info.Candidates, CandidateInfo{
				Source:       c.Source,
				Priority:     c.Priority,
				Capabilities: c.Capabilities,
				Metadata:     c.Metadata,
			})
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByCapability returns the distinct (name, source) candidates that
// declared the given tag, regardless of tool name.
func (h *Hub) FindByCapability(tag string) []*Candidate {
	cands := h.byCap[strings.ToLower(strings.TrimSpace(tag))]
	out := make([]*Candidate, len(cands))
	copy(out, cands)
	return out
}

// suggestCapabilities returns up to 3 registered tags related to the
// missed one by substring containment.
func (h *Hub) suggestCapabilities(tag string) []string {
	tagLower := strings.ToLower(tag)
	all := make([]string, 0, len(h.byCap))
	for t := range h.byCap {
		all = append(all, t)
	}
	sort.Strings(all)

	var suggestions []string
	for _, t := range all {
		if strings.Contains(t, tagLower) || strings.Contains(tagLower, t) {
			suggestions = append(suggestions, t)
			if len(suggestions) == 3 {
				break
			}
		}
	}
	return suggestions
}
