package toolhub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	synthCalcKeywords    = []string{"calculate", "calc", "math", "arithmetic"}
	synthSearchKeywords  = []string{"search", "lookup", "find", "query", "web", "research"}
	synthExtractKeywords = []string{"extract", "parse", "pdf", "document", "docx", "xlsx"}
	synthTimeKeywords    = []string{"time", "date", "clock"}
)

// shouldSynthesize decides between race mode (pick one winner) and
// synthesize mode (await everyone, merge successes). Family keywords are
// checked in a fixed order; the first matching family wins, so an
// ambiguously named tool straddling two families follows whichever
// family is checked first.
func shouldSynthesize(name, capability string, count int) bool {
	if count <= 1 {
		return false
	}
	// Exactly two redundant candidates are always combined.
	if count == 2 {
		return true
	}

	nameLower := strings.ToLower(name)
	capLower := strings.ToLower(capability)

	// Deterministic families should agree; pick one answer.
	if containsAny(nameLower, synthCalcKeywords) || containsAny(capLower, synthCalcKeywords) {
		return false
	}
	// Complementary information is worth merging.
	if containsAny(nameLower, synthSearchKeywords) || containsAny(capLower, synthSearchKeywords) {
		return true
	}
	if containsAny(nameLower, synthExtractKeywords) || containsAny(capLower, synthExtractKeywords) {
		return true
	}
	if containsAny(nameLower, synthTimeKeywords) || containsAny(capLower, synthTimeKeywords) {
		return false
	}

	// Unmatched with several candidates: favor completeness.
	return count > 1
}

// Execute runs the named tool through the dispatch pipeline: history-biased
// ordering, a concurrent first batch, race or synthesize handling, then a
// sequential fallback through the remainder. It never returns a Go error;
// failures are tagged Result values.
//
// gen is the optional synthesis collaborator. Passing nil disables any
// model-assisted merge; the engine never substitutes a default.
func (h *Hub) Execute(ctx context.Context, name string, input any, gen TextGenerator) Result {
	cands := h.byName[name]
	if len(cands) == 0 {
		return Result{Success: false, Error: fmt.Sprintf("tool_not_found: %s", name)}
	}

	callID := uuid.NewString()
	ctx, endCall := h.tracer.StartPhase(ctx, "execute", map[string]string{
		"tool":    name,
		"call_id": callID,
	})
	defer endCall()

	if len(cands) == 1 {
		res := h.callCandidate(ctx, cands[0], input)
		if res.Success {
			h.history.set(name, 0)
		}
		return res
	}

	synth := shouldSynthesize(name, "", len(cands))
	order := h.orderByName(name, cands)
	batchSize := len(cands)
	if !synth || len(cands) > 2 {
		batchSize = min(3, len(order))
	}
	h.tierShuffle(order[:batchSize], cands)

	log.Debug().
		Str("tool", name).
		Str("call_id", callID).
		Int("candidates", len(cands)).
		Int("batch", batchSize).
		Bool("synthesize", synth).
		Msg("Dispatching tool call")

	if synth {
		return h.runSynthesize(ctx, name, cands, order[:batchSize], input, gen, true)
	}
	return h.runRace(ctx, name, cands, order, batchSize, input, true)
}

// ExecuteByCapability mirrors Execute across every candidate declaring
// the given tag, batching at maxParallel instead of 3. Capability lookups
// carry no history bias: the matched set spans tool names.
func (h *Hub) ExecuteByCapability(ctx context.Context, tag string, input any, maxParallel int, gen TextGenerator) Result {
	cands := h.FindByCapability(tag)
	if len(cands) == 0 {
		return Result{
			Success: false,
			Error:   fmt.Sprintf("no_tools_with_capability: %s", tag),
			Meta:    map[string]any{"suggestions": h.suggestCapabilities(tag)},
		}
	}

	callID := uuid.NewString()
	ctx, endCall := h.tracer.StartPhase(ctx, "execute_by_capability", map[string]string{
		"capability": tag,
		"call_id":    callID,
	})
	defer endCall()

	if maxParallel <= 0 {
		maxParallel = 3
	}

	order := make([]int, len(cands))
	for i := range cands {
		order[i] = i
	}
	stableSortByPriority(order, cands)
	h.tierShuffle(order, cands)

	synth := shouldSynthesize(tag, tag, len(cands))
	batchSize := len(cands)
	if !synth || len(cands) > 2 {
		batchSize = min(maxParallel, len(order))
	}

	log.Debug().
		Str("capability", tag).
		Str("call_id", callID).
		Int("candidates", len(cands)).
		Int("batch", batchSize).
		Bool("synthesize", synth).
		Msg("Dispatching capability call")

	if synth {
		return h.runSynthesize(ctx, tag, cands, order[:batchSize], input, gen, false)
	}
	return h.runRace(ctx, tag, cands, order, batchSize, input, false)
}

// orderByName returns candidate indices sorted by priority with the
// last-successful candidate, if any, moved to the front.
func (h *Hub) orderByName(name string, cands []*Candidate) []int {
	order := make([]int, len(cands))
	for i := range cands {
		order[i] = i
	}
	stableSortByPriority(order, cands)

	if last, ok := h.history.get(name); ok && last >= 0 && last < len(cands) {
		out := make([]int, 0, len(order))
		out = append(out, last)
		for _, i := range order {
			if i != last {
				out = append(out, i)
			}
		}
		return out
	}
	return order
}

func stableSortByPriority(order []int, cands []*Candidate) {
	// Insertion sort keeps equal-priority candidates in insertion order.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && cands[order[j]].Priority < cands[order[j-1]].Priority; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

// tierShuffle randomizes order in place, confined to contiguous runs of
// equal priority, so cross-tier ordering is preserved.
func (h *Hub) tierShuffle(order []int, cands []*Candidate) {
	start := 0
	for start < len(order) {
		end := start + 1
		for end < len(order) && cands[order[end]].Priority == cands[order[start]].Priority {
			end++
		}
		if end-start > 1 {
			run := order[start:end]
			h.shuffler.Shuffle(len(run), func(i, j int) { run[i], run[j] = run[j], run[i] })
		}
		start = end
	}
}

type batchItem struct {
	idx int // index into cands
	res Result
}

// launchBatch starts every batch member concurrently under a shared
// cancellable context. The returned channel yields exactly len(batch)
// items; cancel plus wait drains in-flight members cooperatively.
func (h *Hub) launchBatch(ctx context.Context, cands []*Candidate, batch []int, input any) (<-chan batchItem, context.CancelFunc, *sync.WaitGroup) {
	batchCtx, cancel := context.WithCancel(ctx)
	ch := make(chan batchItem, len(batch))
	var wg sync.WaitGroup
	for _, idx := range batch {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch <- batchItem{idx: i, res: h.callCandidate(batchCtx, cands[i], input)}
		}(idx)
	}
	return ch, cancel, &wg
}

// runRace implements race mode: return on first success, cancel and await
// the rest; otherwise score all batch results, then walk the non-batch
// remainder sequentially in priority order.
func (h *Hub) runRace(ctx context.Context, name string, cands []*Candidate, order []int, batchSize int, input any, recordHistory bool) Result {
	batch := order[:batchSize]

	batchCtx, endBatch := h.tracer.StartPhase(ctx, "batch", map[string]string{"mode": "race"})
	ch, cancel, wg := h.launchBatch(batchCtx, cands, batch, input)
	defer cancel()

	results := make(map[int]Result, len(batch))
	for received := 0; received < len(batch); received++ {
		item := <-ch
		if received == 0 && item.res.Success {
			cancel()
			wg.Wait()
			endBatch()
			if recordHistory {
				h.history.set(name, item.idx)
			}
			return item.res
		}
		results[item.idx] = item.res
	}
	endBatch()

	_, endScore := h.tracer.StartPhase(ctx, "score", nil)
	bestIdx, ok := h.pickBest(results, cands, batch)
	endScore()
	if ok {
		if recordHistory {
			h.history.set(name, bestIdx)
		}
		return results[bestIdx]
	}

	var errs []string
	for _, idx := range batch {
		if res, found := results[idx]; found && !res.Success {
			errs = append(errs, fmt.Sprintf("%s: %s", cands[idx].Source, res.Error))
		}
	}

	fallbackCtx, endFallback := h.tracer.StartPhase(ctx, "fallback", nil)
	defer endFallback()
	for _, idx := range order[batchSize:] {
		res := h.callCandidate(fallbackCtx, cands[idx], input)
		if res.Success {
			if recordHistory {
				h.history.set(name, idx)
			}
			return res
		}
		errs = append(errs, fmt.Sprintf("%s: %s", cands[idx].Source, res.Error))
		log.Warn().
			Str("tool", name).
			Str("source", string(cands[idx].Source)).
			Str("error", res.Error).
			Msg("Fallback candidate failed")
	}

	if len(errs) > 5 {
		errs = errs[:5]
	}
	return Result{
		Success: false,
		Error:   "all_candidates_failed",
		Meta:    map[string]any{"name": name, "errors": errs},
	}
}

// runSynthesize implements synthesize mode: await the entire batch, then
// merge the successes. The first successful batch member is recorded in
// the history cache regardless of which result is ultimately returned.
func (h *Hub) runSynthesize(ctx context.Context, name string, cands []*Candidate, batch []int, input any, gen TextGenerator, recordHistory bool) Result {
	batchCtx, endBatch := h.tracer.StartPhase(ctx, "batch", map[string]string{"mode": "synthesize"})
	ch, cancel, wg := h.launchBatch(batchCtx, cands, batch, input)
	defer cancel()

	byIdx := make(map[int]Result, len(batch))
	for range batch {
		item := <-ch
		byIdx[item.idx] = item.res
	}
	wg.Wait()
	endBatch()

	// Keep batch launch order for deterministic 0/1-success handling.
	results := make([]Result, 0, len(batch))
	firstSuccess := -1
	for _, idx := range batch {
		res := byIdx[idx]
		results = append(results, res)
		if res.Success && firstSuccess < 0 {
			firstSuccess = idx
		}
	}

	if recordHistory && firstSuccess >= 0 {
		h.history.set(name, firstSuccess)
	}

	synthCtx, endSynth := h.tracer.StartPhase(ctx, "synthesize", nil)
	defer endSynth()
	return h.synthesize(synthCtx, results, name, input, gen)
}
