package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 40, cfg.Memory.BufferSize)
	assert.Equal(t, 5, cfg.Memory.ContextWindow)
	assert.Equal(t, FormatLines, cfg.Memory.TranscriptFormat)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.False(t, cfg.LLM.APIKey.IsSet())
	assert.False(t, cfg.Observability.OTLPEnabled)
	assert.Equal(t, 15*time.Second, cfg.Observability.ExportInterval.Duration())
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "shutdown timeout",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "postgres" },
			wantErr: "unknown database driver",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path required",
		},
		{
			name:   "memory driver ignores path",
			mutate: func(c *Config) { c.Database.Driver = DriverMemory; c.Database.Path = "" },
		},
		{
			name:    "zero buffer size",
			mutate:  func(c *Config) { c.Memory.BufferSize = 0 },
			wantErr: "buffer size",
		},
		{
			name:    "zero context window",
			mutate:  func(c *Config) { c.Memory.ContextWindow = 0 },
			wantErr: "context window",
		},
		{
			name:    "unknown transcript format",
			mutate:  func(c *Config) { c.Memory.TranscriptFormat = "xml" },
			wantErr: "unknown transcript format",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.LLM.Provider = "llama" },
			wantErr: "unknown llm provider",
		},
		{
			name:    "openai without model",
			mutate:  func(c *Config) { c.LLM.Provider = ProviderOpenAI; c.LLM.Model = "" },
			wantErr: "llm model required",
		},
		{
			name:   "static provider needs no model",
			mutate: func(c *Config) { c.LLM.Provider = ProviderStatic; c.LLM.Model = "" },
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.LLM.MaxRetries = -1 },
			wantErr: "max retries",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_NeverPrints(t *testing.T) {
	s := Secret("sk-live-123")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "Secret([REDACTED])", s.GoString())
	assert.Equal(t, "sk-live-123", s.Value())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	assert.Equal(t, "", Secret("").String())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
