package toolhub

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGen struct {
	calls int32
	text  string
	err   error
}

func (g *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.text, g.err
}

func failExec(msg string) ExecutableFunc {
	return func(ctx context.Context, input any) (any, error) {
		return nil, errors.New(msg)
	}
}

func TestShouldSynthesize(t *testing.T) {
	tests := []struct {
		name       string
		toolName   string
		capability string
		count      int
		want       bool
	}{
		{"single candidate", "anything", "", 1, false},
		{"zero candidates", "anything", "", 0, false},
		{"two candidates always merge", "calculator", "", 2, true},
		{"calc family races", "calculate_sum", "", 3, false},
		{"math keyword races", "math_helper", "", 4, false},
		{"search family merges", "web_search", "", 3, true},
		{"extract family merges", "pdf_extract", "", 3, true},
		{"time family races", "current_time", "", 3, false},
		{"capability tag calc races", "x", "calculate", 3, false},
		{"capability tag search merges", "x", "search", 3, true},
		{"unmatched name defaults to merge", "frobnicator", "", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSynthesize(tt.toolName, tt.capability, tt.count))
		})
	}
}

func TestExecute_RaceFirstSuccessWins(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourceNative, Priority: PriorityNative,
		Exec: okExec("42 is the answer"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourcePlugin, Priority: PriorityPlugin,
		Exec: sleeper(5*time.Second, "too late"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourceRemote, Priority: PriorityRemote,
		Exec: sleeper(5*time.Second, "way too late"),
	}))

	start := time.Now()
	res := h.Execute(context.Background(), "calc_service", nil, nil)
	elapsed := time.Since(start)

	assert.True(t, res.Success)
	assert.Equal(t, "42 is the answer", res.Value)
	assert.Less(t, elapsed, 1*time.Second)

	idx, ok := h.history.get("calc_service")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestExecute_RaceScoresLateSuccesses(t *testing.T) {
	rich := strings.Repeat("result line\n", 30)

	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourceNative, Priority: PriorityNative,
		Exec: failExec("no backend"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourcePlugin, Priority: PriorityPlugin,
		Exec: sleeper(30*time.Millisecond, rich),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "calc_service", Source: SourceRemote, Priority: PriorityRemote,
		Exec: sleeper(60*time.Millisecond, "okay"),
	}))

	res := h.Execute(context.Background(), "calc_service", nil, nil)
	assert.True(t, res.Success)
	assert.Equal(t, rich, res.Value)

	idx, ok := h.history.get("calc_service")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestExecute_AllCandidatesFailed(t *testing.T) {
	h := newTestHub()
	for _, src := range []Source{SourceNative, SourcePlugin, SourceRemote} {
		require.NoError(t, h.Register(Candidate{
			Name: "calculate_tax", Source: src, Priority: priorityFor(src),
			Exec: failExec("backend down"),
		}))
	}

	res := h.Execute(context.Background(), "calculate_tax", map[string]any{"amount": 100}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "all_candidates_failed", res.Error)

	errs, ok := res.Meta["errors"].([]string)
	require.True(t, ok)
	assert.Len(t, errs, 3)
	for _, e := range errs {
		assert.Contains(t, e, "backend down")
	}
	assert.LessOrEqual(t, len(errs), 5)

	_, found := h.history.get("calculate_tax")
	assert.False(t, found)
}

func priorityFor(src Source) int {
	switch src {
	case SourceNative:
		return PriorityNative
	case SourcePlugin:
		return PriorityPlugin
	default:
		return PriorityRemote
	}
}

func TestExecute_SequentialFallbackAfterBatch(t *testing.T) {
	h := newTestHub()
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Register(Candidate{
			Name: "calc_rates", Source: SourceNative, Priority: i,
			Exec: failExec("down"),
		}))
	}
	require.NoError(t, h.Register(Candidate{
		Name: "calc_rates", Source: SourceRemote, Priority: 9,
		Exec: okExec("fallback answer"),
	}))

	res := h.Execute(context.Background(), "calc_rates", nil, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "fallback answer", res.Value)

	idx, ok := h.history.get("calc_rates")
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestExecute_HistoryBiasesOrdering(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{Name: "calc_x", Source: SourceNative, Priority: 0, Exec: okExec("a")}))
	require.NoError(t, h.Register(Candidate{Name: "calc_x", Source: SourcePlugin, Priority: 1, Exec: okExec("b")}))
	require.NoError(t, h.Register(Candidate{Name: "calc_x", Source: SourceRemote, Priority: 2, Exec: okExec("c")}))

	cands := h.byName["calc_x"]

	order := h.orderByName("calc_x", cands)
	assert.Equal(t, []int{0, 1, 2}, order)

	h.history.set("calc_x", 2)
	order = h.orderByName("calc_x", cands)
	assert.Equal(t, []int{2, 0, 1}, order)

	// Stale index out of range falls back to priority order.
	h.history.set("calc_x", 99)
	order = h.orderByName("calc_x", cands)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestExecute_SynthesizeTwoEchoes(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "echo", Source: SourceNative, Priority: PriorityNative, Exec: okExec("alpha"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "echo", Source: SourcePlugin, Priority: PriorityPlugin, Exec: okExec("beta"),
	}))

	res := h.Execute(context.Background(), "echo", nil, nil)
	require.True(t, res.Success)

	merged, ok := res.Value.(string)
	require.True(t, ok)
	assert.Contains(t, merged, "alpha")
	assert.Contains(t, merged, "beta")

	assert.Equal(t, true, res.Meta["synthesized"])
	assert.Equal(t, "simple_merge", res.Meta["synthesis_method"])
	assert.Equal(t, 2, res.Meta["source_count"])
	assert.Equal(t, []string{"native", "plugin"}, res.Meta["sources"])
}

func TestExecute_SynthesizeSingleSuccessPassesThrough(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "lookup", Source: SourceNative, Priority: PriorityNative,
		Exec: failExec("cache miss"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "lookup", Source: SourceRemote, Priority: PriorityRemote,
		Exec: okExec("the real answer"),
	}))

	res := h.Execute(context.Background(), "lookup", nil, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "the real answer", res.Value)
	assert.Nil(t, res.Meta["synthesized"])

	idx, ok := h.history.get("lookup")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestExecute_SynthesizeAllFailReturnsFirstFailure(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "lookup", Source: SourceNative, Priority: PriorityNative,
		Exec: failExec("first error"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "lookup", Source: SourceRemote, Priority: PriorityRemote,
		Exec: failExec("second error"),
	}))

	res := h.Execute(context.Background(), "lookup", nil, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "first error", res.Error)
}

func TestExecute_SynthesizeWithGenerator(t *testing.T) {
	gen := &fakeGen{text: "a unified answer"}

	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourceNative, Priority: PriorityNative, Exec: okExec("fact one"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourcePlugin, Priority: PriorityPlugin, Exec: okExec("fact two"),
	}))

	res := h.Execute(context.Background(), "web_search", "what happened", gen)
	require.True(t, res.Success)
	assert.Equal(t, "a unified answer", res.Value)
	assert.Equal(t, true, res.Meta["synthesized"])
	assert.Equal(t, 2, res.Meta["source_count"])
	assert.Nil(t, res.Meta["synthesis_method"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))
}

func TestExecute_SynthesizeGeneratorFailureFallsBack(t *testing.T) {
	gen := &fakeGen{err: errors.New("model unavailable")}

	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourceNative, Priority: PriorityNative, Exec: okExec("fact one"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourcePlugin, Priority: PriorityPlugin, Exec: okExec("fact two"),
	}))

	res := h.Execute(context.Background(), "web_search", nil, gen)
	require.True(t, res.Success)
	assert.Equal(t, "simple_merge", res.Meta["synthesis_method"])

	merged := res.Value.(string)
	assert.Contains(t, merged, "fact one")
	assert.Contains(t, merged, "fact two")
}

func TestExecute_SynthesizeSkipsGeneratorOverBudget(t *testing.T) {
	gen := &fakeGen{text: "should never be used"}
	big := strings.Repeat("x", 1500)

	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourceNative, Priority: PriorityNative, Exec: okExec(big),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourcePlugin, Priority: PriorityPlugin, Exec: okExec(big),
	}))

	res := h.Execute(context.Background(), "web_search", nil, gen)
	require.True(t, res.Success)
	assert.Equal(t, "simple_merge", res.Meta["synthesis_method"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&gen.calls))
}

func TestExecuteByCapability_NoTools(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "web_search", Source: SourceNative,
		Capabilities: []string{"search", "web"}, Exec: okExec("x"),
	}))

	res := h.ExecuteByCapability(context.Background(), "teleport", nil, 3, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "no_tools_with_capability: teleport", res.Error)
	assert.Empty(t, res.Meta["suggestions"])

	res = h.ExecuteByCapability(context.Background(), "websearch", nil, 3, nil)
	assert.False(t, res.Success)
	suggestions, ok := res.Meta["suggestions"].([]string)
	require.True(t, ok)
	assert.Contains(t, suggestions, "web")
}

func TestExecuteByCapability_CalculateMergesAgreement(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Register(Candidate{
		Name: "calculator", Source: SourceNative, Priority: PriorityNative,
		Capabilities: []string{"calculate"}, Exec: okExec("5"),
	}))
	require.NoError(t, h.Register(Candidate{
		Name: "math_service", Source: SourceRemote, Priority: PriorityRemote,
		Capabilities: []string{"calculate"}, Exec: okExec("5"),
	}))

	res := h.ExecuteByCapability(context.Background(), "calculate", "2+3", 3, nil)
	require.True(t, res.Success)
	assert.Contains(t, stringifyValue(res.Value), "5")

	// Capability dispatch spans tool names, so no history is recorded.
	_, found := h.history.get("calculate")
	assert.False(t, found)
	_, found = h.history.get("calculator")
	assert.False(t, found)
}

func TestExecuteByCapability_RaceMode(t *testing.T) {
	h := newTestHub()
	for i, name := range []string{"clock_a", "clock_b", "clock_c"} {
		require.NoError(t, h.Register(Candidate{
			Name: name, Source: SourceNative, Priority: i,
			Capabilities: []string{"time"},
			Exec:         okExec("2026-08-24T10:00:00Z"),
		}))
	}

	res := h.ExecuteByCapability(context.Background(), "time", nil, 3, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "2026-08-24T10:00:00Z", res.Value)
	assert.Nil(t, res.Meta["synthesized"])
}

func TestTierShuffle_ConfinedToEqualPriority(t *testing.T) {
	h := newTestHub()
	for i, p := range []int{0, 0, 0, 1, 2} {
		require.NoError(t, h.Register(Candidate{
			Name: "t", Source: SourceNative, Priority: p, Exec: okExec(i),
		}))
	}
	cands := h.byName["t"]

	order := []int{0, 1, 2, 3, 4}
	h.tierShuffle(order, cands) // NoShuffle keeps order
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	// With real randomness, priorities must still be non-decreasing.
	h2 := New(WithTimeoutSource(StaticTimeout(time.Second)))
	h2.byName = h.byName
	for i := 0; i < 20; i++ {
		order := []int{0, 1, 2, 3, 4}
		h2.tierShuffle(order, cands)
		prev := -1
		for _, idx := range order {
			assert.GreaterOrEqual(t, cands[idx].Priority, prev)
			prev = cands[idx].Priority
		}
	}
}

func TestStableSortByPriority(t *testing.T) {
	cands := []*Candidate{
		{Name: "a", Priority: 2},
		{Name: "b", Priority: 0},
		{Name: "c", Priority: 1},
		{Name: "d", Priority: 0},
	}
	order := []int{0, 1, 2, 3}
	stableSortByPriority(order, cands)
	assert.Equal(t, []int{1, 3, 2, 0}, order)
}
