package ringlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfigFile(t, "ringlog.yaml", `
level: debug
console:
  level: info
files:
  - path: /var/log/app.log
    mode: append
    level: warn
    buffer_size: 4096
    flush_interval_ms: 500
    enable_rotation: true
    rotation_mode: size
    max_size: 1048576
    max_rotated_files: 3
    compression: gzip
networks:
  - host: collector.internal
    port: 8443
    path: /ingest
    level: error
    batch_size: 64
    encoding: msgpack
    retry:
      strategy: linear
      initial_delay_ms: 250
      max_delay_ms: 5000
      max_attempts: 4
      jitter_factor: 0.2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Level)
	require.NotNil(t, cfg.Console)
	require.Equal(t, "info", cfg.Console.Level)

	require.Len(t, cfg.Files, 1)
	f := cfg.Files[0]
	require.Equal(t, "/var/log/app.log", f.Path)
	require.True(t, f.EnableRotation)
	require.Equal(t, int64(1048576), f.MaxSize)
	require.Equal(t, "gzip", f.Compression)
	require.Equal(t, 500, f.FlushIntervalMs)

	require.Len(t, cfg.Networks, 1)
	n := cfg.Networks[0]
	require.Equal(t, "collector.internal", n.Host)
	require.Equal(t, 8443, n.Port)
	require.Equal(t, "msgpack", n.Encoding)
	require.Equal(t, "linear", n.Retry.Strategy)
	require.Equal(t, 4, n.Retry.MaxAttempts)
	require.InDelta(t, 0.2, n.Retry.JitterFactor, 1e-9)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfigFile(t, "ringlog.json", `{
  "level": "warn",
  "console": {"level": "debug"},
  "files": [{"path": "/tmp/x.log", "level": "info"}]
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Level)
	require.NotNil(t, cfg.Console)
	require.Len(t, cfg.Files, 1)
	require.Equal(t, "/tmp/x.log", cfg.Files[0].Path)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfigFile(t, "broken.yaml", "level: [unclosed")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigBuild(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	cfg := &Config{
		Level:   "debug",
		Console: &ConsoleConfig{Level: "error"},
		Files: []FileConfig{{
			Path:            logPath,
			Level:           "debug",
			FlushIntervalMs: int(time.Hour / time.Millisecond),
		}},
	}

	d, err := cfg.Build()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Info("built from config", nil))
	require.NoError(t, d.Flush())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "built from config")
}

func TestConfigBuild_BadLevel(t *testing.T) {
	cfg := &Config{Level: "shouty"}
	_, err := cfg.Build()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestConfigBuild_BadSinkClosesEarlierSinks(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Level: "info",
		Files: []FileConfig{
			{Path: filepath.Join(dir, "ok.log"), Level: "info"},
			{Path: "", Level: "info"},
		},
	}
	_, err := cfg.Build()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
