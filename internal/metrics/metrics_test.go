package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolhub/pkg/toolhub"
)

func TestRecordDuration(t *testing.T) {
	m := NewMetrics()

	m.RecordDuration("calculator", toolhub.SourceNative, 50*time.Millisecond)
	m.RecordDuration("calculator", toolhub.SourceNative, 70*time.Millisecond)
	m.RecordDuration("calculator", toolhub.SourceRemote, 200*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.ToolExecutionsTotal.WithLabelValues("calculator", "native")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.ToolExecutionsTotal.WithLabelValues("calculator", "remote")))
}

func TestRecordError(t *testing.T) {
	m := NewMetrics()

	m.RecordError("web_search", "timeout")
	m.RecordError("web_search", "timeout")
	m.RecordError("web_search", "exception")

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.ToolExecutionErrorsTotal.WithLabelValues("web_search", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.ToolExecutionErrorsTotal.WithLabelValues("web_search", "exception")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordDuration("echo", toolhub.SourceNative, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tool_executions_total")
	assert.Contains(t, body, "tool_execution_duration_seconds")
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()
	a.RecordError("t", "timeout")

	assert.Equal(t, 0.0, testutil.ToFloat64(
		b.ToolExecutionErrorsTotal.WithLabelValues("t", "timeout")))
}
