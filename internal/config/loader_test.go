package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Memory.BufferSize)
	assert.False(t, strings.HasPrefix(cfg.Database.Path, "~"), "home should be expanded")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `server:
  host: 0.0.0.0
  http_port: 8088
  shutdown_timeout: 3s
database:
  driver: memory
memory:
  buffer_size: 10
  transcript_format: jsonl
llm:
  provider: static
  static_reply: "hello there"
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Memory.BufferSize)
	assert.Equal(t, 5, cfg.Memory.ContextWindow, "unset keys keep defaults")
	assert.Equal(t, FormatJSONL, cfg.Memory.TranscriptFormat)
	assert.Equal(t, ProviderStatic, cfg.LLM.Provider)
	assert.Equal(t, "hello there", cfg.LLM.StaticReply)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `memory:
  buffer_size: 10
`, 0600)

	t.Setenv("PROJECTCHAT_MEMORY_BUFFER_SIZE", "2")
	t.Setenv("PROJECTCHAT_SERVER_HTTP_PORT", "9191")
	t.Setenv("PROJECTCHAT_LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Memory.BufferSize)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey.Value())
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	path := writeConfig(t, `memory:
  buffer_size: -1
`, 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	path := writeConfig(t, "server:\n  http_port: 8080\n", 0644)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_FileTooLarge(t *testing.T) {
	big := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
	path := writeConfig(t, big, 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PROJECTCHAT_SERVER_HTTP_PORT":            "server.http_port",
		"PROJECTCHAT_LLM_API_KEY":                 "llm.api_key",
		"PROJECTCHAT_MEMORY_BUFFER_SIZE":          "memory.buffer_size",
		"PROJECTCHAT_OBSERVABILITY_SERVICE":       "observability.service",
		"PROJECTCHAT_OBSERVABILITY_OTLP_ENDPOINT": "observability.otlp_endpoint",
		"PROJECTCHAT_DEBUG":                       "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
