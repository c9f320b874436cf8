package toolhub

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

type execOutcome struct {
	value any
	err   error
}

// callCandidate runs one candidate with timeout enforcement and result
// normalization. It never returns a Go error: every failure mode becomes
// a Result with Success=false and a non-empty Error.
func (h *Hub) callCandidate(ctx context.Context, cand *Candidate, input any) Result {
	timeout := h.timeouts.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if cand.schema != nil {
		if err := validateInput(cand.schema.schema, input); err != nil {
			h.metrics.RecordError(cand.Name, "validation")
			return Result{
				Success: false,
				Error:   fmt.Sprintf("input validation failed: %v", err),
			}.withSource(cand.Source)
		}
	}

	start := time.Now()
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome := make(chan execOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- execOutcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		v, err := cand.Exec.Execute(execCtx, input)
		outcome <- execOutcome{value: v, err: err}
	}()

	select {
	case out := <-outcome:
		duration := time.Since(start)
		h.metrics.RecordDuration(cand.Name, cand.Source, duration)

		if out.err != nil {
			log.Warn().
				Str("tool", cand.Name).
				Str("source", string(cand.Source)).
				Dur("duration", duration).
				Err(out.err).
				Msg("Candidate execution failed")
			h.metrics.RecordError(cand.Name, "exception")
			return Result{Success: false, Error: out.err.Error()}.withSource(cand.Source)
		}

		res := normalizeResult(out.value)
		if !res.Success {
			h.metrics.RecordError(cand.Name, "failed")
		}
		log.Debug().
			Str("tool", cand.Name).
			Str("source", string(cand.Source)).
			Dur("duration", duration).
			Bool("success", res.Success).
			Msg("Candidate execution completed")
		return res.withSource(cand.Source)

	case <-execCtx.Done():
		// Cancel the unit and await its exit before returning. A
		// non-cooperative candidate cannot be killed, only abandoned
		// once it observes ctx.
		cancel()
		<-outcome

		duration := time.Since(start)
		h.metrics.RecordDuration(cand.Name, cand.Source, duration)

		if ctx.Err() == context.Canceled {
			// The surrounding batch was cancelled, not a deadline.
			return Result{Success: false, Error: "tool_cancelled"}.withSource(cand.Source)
		}

		h.metrics.RecordError(cand.Name, "timeout")
		log.Warn().
			Str("tool", cand.Name).
			Str("source", string(cand.Source)).
			Dur("duration", duration).
			Msg("Candidate execution timeout")

		return Result{
			Success: false,
			Error:   fmt.Sprintf("tool_timeout_after_%gs", timeout.Seconds()),
		}.withSource(cand.Source)
	}
}

// normalizeResult coerces whatever a tool returned into the canonical
// Result shape. A missing success flag defaults to true for
// backwards compatibility with loosely-typed tools.
func normalizeResult(v any) Result {
	switch val := v.(type) {
	case nil:
		return Result{Success: false, Error: "tool_returned_none"}
	case Result:
		return ensureError(val)
	case *Result:
		if val == nil {
			return Result{Success: false, Error: "tool_returned_none"}
		}
		return ensureError(*val)
	case map[string]any:
		res := Result{Success: true}
		if s, ok := val["success"]; ok {
			b, _ := s.(bool)
			res.Success = b
		}
		if e, ok := val["error"].(string); ok {
			res.Error = e
		}
		if m, ok := val["meta"].(map[string]any); ok {
			res.Meta = m
		}
		switch {
		case val["result"] != nil:
			res.Value = val["result"]
		case val["value"] != nil:
			res.Value = val["value"]
		default:
			res.Value = val
		}
		return ensureError(res)
	default:
		return Result{Success: true, Value: v}
	}
}

func ensureError(r Result) Result {
	if !r.Success && r.Error == "" {
		r.Error = "tool_failed"
	}
	return r
}

func validateInput(schema *gojsonschema.Schema, input any) error {
	params, ok := input.(map[string]any)
	if !ok {
		// Schemas only constrain structured input.
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("validation errors: %v", msgs)
	}
	return nil
}
