package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forkstream.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/forkstream.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
forkstream:
  collector:
    listen: "0.0.0.0:4000"
    stream_timeout: 30s
    sinks:
      - type: console
      - type: file
        options:
          directory: /var/spool/forkstream
  metrics:
    enabled: true
  log:
    level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Collector.Listen)
	assert.Equal(t, 30*time.Second, cfg.Collector.StreamTimeout)
	require.Len(t, cfg.Collector.Sinks, 2)
	assert.Equal(t, "file", cfg.Collector.Sinks[1].Type)
	assert.Equal(t, "/var/spool/forkstream", cfg.Collector.Sinks[1].Options["directory"])
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Collector.ReadBatch, cfg.Collector.ReadBatch)
	assert.Equal(t, Default().Control.Socket, cfg.Control.Socket)
}

func TestLoad_WithoutRootKey(t *testing.T) {
	// A file without the forkstream: root key is read as-is, so it can
	// be a standalone config as well as a shared one.
	path := writeConfig(t, `
collector:
  listen: "127.0.0.1:5000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", cfg.Collector.Listen)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errHint string
	}{
		{
			name: "bad listen address",
			content: `
forkstream:
  collector:
    listen: "not-an-endpoint"
`,
			errHint: "listen",
		},
		{
			name: "zero read batch",
			content: `
forkstream:
  collector:
    read_batch: 0
`,
			errHint: "read_batch",
		},
		{
			name: "sink without type",
			content: `
forkstream:
  collector:
    sinks:
      - options:
          directory: /tmp
`,
			errHint: "type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errHint)
		})
	}
}

func TestValidate_EmptySocket(t *testing.T) {
	cfg := Default()
	cfg.Control.Socket = ""
	require.Error(t, cfg.Validate())
}
