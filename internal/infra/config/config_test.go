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
	path := filepath.Join(t.TempDir(), "bgmscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
source:
  type: snapshot
  settings:
    path: dump.bin
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, 30, cfg.Poll.IntervalMs)
	assert.Equal(t, ":8750", cfg.Server.Addr)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, "snapshot", cfg.Source.Type)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  output: stderr
source:
  type: procmem
  settings:
    process: host.exe
    address: "0x7ff6a120"
poll:
  interval_ms: 100
server:
  enabled: true
  addr: ":9000"
catalog:
  path: songs.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "host.exe", cfg.Source.Settings["process"])
	assert.Equal(t, 100, cfg.Poll.IntervalMs)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "songs.yaml", cfg.Catalog.Path)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			// A zero value is indistinguishable from "unset" and takes the
			// default rather than failing the gte=1 rule.
			name: "zero interval takes the default",
			content: `
poll:
  interval_ms: 0
`,
			errMsg: "",
		},
		{
			name: "interval too large",
			content: `
poll:
  interval_ms: 5000
`,
			errMsg: "IntervalMs",
		},
		{
			name: "bad log level",
			content: `
log:
  level: loud
`,
			errMsg: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			_, err := Load(path)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BGMSCOPE_PROCESS", "other.exe")
	t.Setenv("BGMSCOPE_ADDRESS", "0xdeadbeef")

	path := writeConfig(t, `
source:
  type: procmem
  settings:
    process: host.exe
    address: "0x1000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "other.exe", cfg.Source.Settings["process"])
	assert.Equal(t, "0xdeadbeef", cfg.Source.Settings["address"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPollInterval(t *testing.T) {
	cfg := Config{Poll: PollConfig{IntervalMs: 50}}
	assert.Equal(t, int64(50_000_000), cfg.PollInterval().Nanoseconds())
}
