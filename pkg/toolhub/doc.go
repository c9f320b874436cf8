// Package toolhub dispatches tool calls across interchangeable,
// priority-ordered candidate backends: native implementations, loaded
// plugins, and remote adapters.
//
// Candidates are registered once at startup under a tool name and under
// the capability tags extracted from their descriptions. A call either
// races redundant candidates to the first success (cancelling the rest)
// or awaits all of them and merges the successes, depending on how many
// candidates exist and which keyword family the tool belongs to. Both
// entry points always return a Result; failures are tagged values, never
// Go errors, so the caller can fall back to direct reasoning.
//
// Invariants:
//   - Registration never overlaps execution; lookups are unsynchronized.
//   - A Result with Success=false always carries a non-empty Error.
//   - The history cache is a best-effort ordering hint only.
//
// Usage:
//
//	hub := toolhub.New()
//	_ = hub.Register(toolhub.Candidate{
//		Name:     "clock",
//		Source:   toolhub.SourceNative,
//		Priority: toolhub.PriorityNative,
//		Capabilities: toolhub.ExtractCapabilities("Report the current time", "clock"),
//		Exec: toolhub.ExecutableFunc(func(ctx context.Context, input any) (any, error) {
//			return time.Now().Format(time.RFC3339), nil
//		}),
//	})
//	res := hub.Execute(ctx, "clock", nil, nil)
package toolhub
