package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedTimeout_ReadsConfig(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 5}}`)
	ct := NewCachedTimeout(NewLoader(path))

	assert.Equal(t, 5*time.Second, ct.Timeout())
}

func TestCachedTimeout_DefaultOnMissingFile(t *testing.T) {
	ct := NewCachedTimeout(NewLoader(t.TempDir() + "/nope.json"))
	assert.Equal(t, 30*time.Second, ct.Timeout())
}

func TestCachedTimeout_CachesUntilInvalidated(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 5}}`)
	ct := NewCachedTimeout(NewLoader(path))
	require.Equal(t, 5*time.Second, ct.Timeout())

	require.NoError(t, os.WriteFile(path, []byte(`{"tools": {"timeout": 9}}`), 0o644))

	// Cached value survives the file change until invalidation.
	assert.Equal(t, 5*time.Second, ct.Timeout())

	ct.Invalidate()
	assert.Equal(t, 9*time.Second, ct.Timeout())
}

func TestCachedTimeout_TTLExpiry(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 5}}`)
	ct := NewCachedTimeout(NewLoader(path))
	ct.ttl = 10 * time.Millisecond

	require.Equal(t, 5*time.Second, ct.Timeout())
	require.NoError(t, os.WriteFile(path, []byte(`{"tools": {"timeout": 9}}`), 0o644))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 9*time.Second, ct.Timeout())
}

func TestCachedTimeout_NonPositiveConfigFallsBack(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 0}}`)
	ct := NewCachedTimeout(NewLoader(path))
	assert.Equal(t, 30*time.Second, ct.Timeout())
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 5}}`)

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(NewLoader(path), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"tools": {"timeout": 9}}`), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}
}
