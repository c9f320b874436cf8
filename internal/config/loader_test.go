package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolhub.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Tools.Timeout)
	assert.Equal(t, 3, cfg.Tools.MaxParallel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"tools": {
			"timeout": 5,
			"max_parallel": 8,
			"remote_endpoints": {"web_search": "http://localhost:9000/search"}
		},
		"logging": {"level": "debug"},
		"data_dir": "/tmp/toolhub-test"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Tools.Timeout)
	assert.Equal(t, 8, cfg.Tools.MaxParallel)
	assert.Equal(t, "http://localhost:9000/search", cfg.Tools.RemoteEndpoints["web_search"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/toolhub-test", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/toolhub-test", "toolhub.log"), cfg.Logging.File)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"tools": {"timeout": 7}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Tools.Timeout)
	assert.Equal(t, 3, cfg.Tools.MaxParallel)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, `{not json`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoaderPath(t *testing.T) {
	l := NewLoader("/explicit/path.json")
	assert.Equal(t, "/explicit/path.json", l.Path())

	l = NewLoader("")
	assert.Contains(t, l.Path(), filepath.Join(".toolhub", "toolhub.json"))
}
