package coresched

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")
	require.Equal(t, runtime.GOMAXPROCS(0), cfg.CPUs)
	require.Equal(t, 1, cfg.TickMS)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 256, cfg.EventBuffer)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Equal(t, defaultConfig(), cfg)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("cpus: 3\ntick_ms: 7\nlog_level: debug\n"), 0o644))

	cfg := Load(path)
	require.Equal(t, 3, cfg.CPUs)
	require.Equal(t, 7, cfg.TickMS)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 256, cfg.EventBuffer)
}

func TestLoadClampsNonsense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("cpus: -2\ntick_ms: 0\nlog_level: shouty\nevent_buffer: -1\n"), 0o644))

	cfg := Load(path)
	require.Equal(t, runtime.GOMAXPROCS(0), cfg.CPUs)
	require.Equal(t, 1, cfg.TickMS)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 256, cfg.EventBuffer)
}
