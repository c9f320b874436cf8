package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "toolhub"

// PhaseTracer emits one span per engine phase. It satisfies the
// toolhub.Tracer interface.
type PhaseTracer struct{}

// NewPhaseTracer creates a tracer for engine phase events. Init must
// have been called for spans to be exported.
func NewPhaseTracer() *PhaseTracer {
	return &PhaseTracer{}
}

// StartPhase opens a span named after the phase, tagged with the given
// attributes. The returned func ends the span.
func (t *PhaseTracer) StartPhase(ctx context.Context, phase string, attrs map[string]string) (context.Context, func()) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	ctx, span := StartSpan(ctx, tracerName, phase, kvs...)
	return ctx, func() { span.End() }
}
