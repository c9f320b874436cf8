package toolhub

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Source identifies which backend family a candidate comes from.
type Source string

const (
	SourceNative Source = "native"
	SourcePlugin Source = "plugin"
	SourceRemote Source = "remote"
)

// Priorities conventionally assigned to the three candidate sources.
// Lower is preferred.
const (
	PriorityNative = 0
	PriorityPlugin = 1
	PriorityRemote = 2
)

// Executable is the contract every tool implementation must satisfy.
// Execute returns either a Result, a map with a "success" key, or any
// opaque value; the engine normalizes all of them. Implementations must
// honor ctx cancellation promptly — the engine cannot forcibly kill a
// non-cooperative call.
type Executable interface {
	Execute(ctx context.Context, input any) (any, error)
}

// ExecutableFunc adapts a plain function to the Executable interface.
type ExecutableFunc func(ctx context.Context, input any) (any, error)

func (f ExecutableFunc) Execute(ctx context.Context, input any) (any, error) {
	return f(ctx, input)
}

// Candidate is one concrete implementation able to satisfy a named tool
// call or a declared capability. Immutable after registration.
type Candidate struct {
	Name         string         `json:"name"`
	Source       Source         `json:"source"`
	Priority     int            `json:"priority"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Exec         Executable     `json:"-"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	schema *compiledSchema
}

// Result is the canonical shape all engine output conforms to.
// Success=false always carries a non-empty Error.
type Result struct {
	Success bool           `json:"success"`
	Value   any            `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (r Result) withSource(src Source) Result {
	if r.Meta == nil {
		r.Meta = map[string]any{}
	}
	r.Meta["source"] = string(src)
	return r
}

// TextGenerator is the optional synthesis collaborator. It is supplied
// explicitly per call; the engine never constructs one itself.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MetricsCollector receives duration samples and error events from the
// execution engine. The default is a no-op.
type MetricsCollector interface {
	RecordDuration(tool string, source Source, d time.Duration)
	RecordError(tool string, errType string)
}

type nopMetrics struct{}

func (nopMetrics) RecordDuration(string, Source, time.Duration) {}
func (nopMetrics) RecordError(string, string)                  {}

// Tracer receives phase-tagged start/end events for one engine call.
// The returned func ends the phase. The default is a no-op.
type Tracer interface {
	StartPhase(ctx context.Context, phase string, attrs map[string]string) (context.Context, func())
}

type nopTracer struct{}

func (nopTracer) StartPhase(ctx context.Context, _ string, _ map[string]string) (context.Context, func()) {
	return ctx, func() {}
}

// TimeoutSource provides the per-call execution timeout. Implementations
// are expected to cache config reads (see internal/config.CachedTimeout).
type TimeoutSource interface {
	Timeout() time.Duration
}

// StaticTimeout is a fixed-value TimeoutSource.
type StaticTimeout time.Duration

func (s StaticTimeout) Timeout() time.Duration { return time.Duration(s) }

// DefaultTimeout applies when no TimeoutSource is configured.
const DefaultTimeout = 30 * time.Second

// Shuffler injects the randomness used to reorder candidates within one
// priority tier, so tests can force determinism.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type lockedShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

func newDefaultShuffler() Shuffler {
	return &lockedShuffler{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NoShuffle keeps candidate order untouched. Useful in tests.
type NoShuffle struct{}

func (NoShuffle) Shuffle(int, func(i, j int)) {}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithTracer sets the phase tracer.
func WithTracer(t Tracer) Option {
	return func(h *Hub) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithTimeoutSource sets the per-call timeout source.
func WithTimeoutSource(ts TimeoutSource) Option {
	return func(h *Hub) {
		if ts != nil {
			h.timeouts = ts
		}
	}
}

// WithShuffler sets the randomness source for tier shuffling.
func WithShuffler(s Shuffler) Option {
	return func(h *Hub) {
		if s != nil {
			h.shuffler = s
		}
	}
}
