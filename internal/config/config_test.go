package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafka2i/kafka2i/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	p := Defaults()
	assert.Equal(t, 30*time.Second, p.RefreshInterval)
	assert.Equal(t, 30*time.Second, p.Timeout)
	assert.Equal(t, 5*time.Second, p.PollTimeout)
	assert.Equal(t, 500*time.Millisecond, p.WarmupTimeout)
	assert.Equal(t, "mocha", p.Theme)
	assert.True(t, p.Clipboard)
	assert.Contains(t, p.ClientID, "kafka2i-")
}

func TestDefaultPath(t *testing.T) {
	orig := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = orig })

	osUserHomeDir = func() (string, error) { return "/home/op", nil }
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/op/.config/kafka2i/config.yaml", path)

	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }
	_, err = DefaultPath()
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bootstrap_servers: ["kafka-1:9092", "kafka-2:9092"]
log_level: debug
clipboard: false
refresh_interval: 10s
`)
	f, err := LoadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, f.BootstrapServers)
	assert.Equal(t, "debug", f.LogLevel)
	require.NotNil(t, f.Clipboard)
	assert.False(t, *f.Clipboard)
	assert.Equal(t, "10s", f.RefreshInterval)
}

func TestLoadFile_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	f, err := LoadFile(missing, false)
	require.NoError(t, err)
	assert.Empty(t, f.BootstrapServers)

	_, err = LoadFile(missing, true)
	assert.Error(t, err)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, "bootstrap_servers: [unterminated")
	_, err := LoadFile(path, true)
	assert.Error(t, err)
}

func TestApply_FlagsWin(t *testing.T) {
	params := Defaults()
	params.BootstrapServers = []string{"flag:9092"}
	params.LogLevel = "warn"

	f := File{
		BootstrapServers: []string{"file:9092"},
		LogLevel:         "debug",
		Theme:            "latte",
		PollTimeout:      "2s",
		WarmupTimeout:    "3s",
	}
	changed := map[string]bool{"bootstrap-servers": true}

	require.NoError(t, Apply(&params, f, func(name string) bool { return changed[name] }))
	assert.Equal(t, []string{"flag:9092"}, params.BootstrapServers)
	assert.Equal(t, "debug", params.LogLevel)
	assert.Equal(t, "latte", params.Theme)
	assert.Equal(t, 2*time.Second, params.PollTimeout)
	assert.Equal(t, 3*time.Second, params.WarmupTimeout)
}

func TestApply_WarmupFlagWins(t *testing.T) {
	params := Defaults()
	params.WarmupTimeout = 5 * time.Second
	changed := map[string]bool{"warmup-timeout": true}

	require.NoError(t, Apply(&params, File{WarmupTimeout: "1s"}, func(name string) bool { return changed[name] }))
	assert.Equal(t, 5*time.Second, params.WarmupTimeout)
}

func TestApply_BadDuration(t *testing.T) {
	params := Defaults()
	err := Apply(&params, File{Timeout: "soon"}, nil)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "timeout", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	valid := func() types.Params {
		p := Defaults()
		p.BootstrapServers = []string{"localhost:9092"}
		return p
	}

	tests := []struct {
		name   string
		mutate func(p *types.Params)
		field  string
	}{
		{"ok", func(p *types.Params) {}, ""},
		{"no servers", func(p *types.Params) { p.BootstrapServers = nil }, "bootstrap_servers"},
		{"blank servers", func(p *types.Params) { p.BootstrapServers = []string{" ", ""} }, "bootstrap_servers"},
		{"bad level", func(p *types.Params) { p.LogLevel = "chatty" }, "log_level"},
		{"zero refresh", func(p *types.Params) { p.RefreshInterval = 0 }, "refresh_interval"},
		{"zero timeout", func(p *types.Params) { p.Timeout = 0 }, "timeout"},
		{"negative poll", func(p *types.Params) { p.PollTimeout = -time.Second }, "poll_timeout"},
		{"blocking poll", func(p *types.Params) { p.PollTimeout = 0 }, ""},
		{"zero warmup", func(p *types.Params) { p.WarmupTimeout = 0 }, "warmup_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := Validate(&p)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_TrimsServers(t *testing.T) {
	p := Defaults()
	p.BootstrapServers = []string{" kafka:9092 ", ""}
	require.NoError(t, Validate(&p))
	assert.Equal(t, []string{"kafka:9092"}, p.BootstrapServers)
}
