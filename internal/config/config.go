// Package config provides configuration loading for projectchat.
//
// Values come from hardcoded defaults, then an optional YAML file, then
// PROJECTCHAT_* environment variables. See Load for the precedence rules.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

// Transcript formats.
const (
	FormatLines = "lines"
	FormatJSONL = "jsonl"
)

// Config holds the complete projectchat configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Memory        MemoryConfig        `koanf:"memory"`
	LLM           LLMConfig           `koanf:"llm"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the durable store.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

// MemoryConfig controls the session buffer and transcript encoding.
type MemoryConfig struct {
	BufferSize       int    `koanf:"buffer_size"`
	ContextWindow    int    `koanf:"context_window"`
	TranscriptFormat string `koanf:"transcript_format"`
}

// LLMConfig configures the external completion service.
type LLMConfig struct {
	Provider    string   `koanf:"provider"`
	Model       string   `koanf:"model"`
	BaseURL     string   `koanf:"base_url"`
	APIKey      Secret   `koanf:"api_key"`
	Timeout     Duration `koanf:"timeout"`
	Temperature float64  `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
	RateLimit   float64  `koanf:"rate_limit"` // requests per second
	Burst       int      `koanf:"burst"`
	MaxRetries  int      `koanf:"max_retries"`
	StaticReply string   `koanf:"static_reply"`
}

// LoggingConfig is the subset of logging options exposed to operators.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
}

// ObservabilityConfig controls metrics exposure and OTLP export.
type ObservabilityConfig struct {
	ServiceName     string   `koanf:"service_name"`
	MetricsEnabled  bool     `koanf:"metrics_enabled"`
	OTLPEnabled     bool     `koanf:"otlp_enabled"`
	OTLPEndpoint    string   `koanf:"otlp_endpoint"`
	OTLPProtocol    string   `koanf:"otlp_protocol"` // grpc or http/protobuf
	OTLPInsecure    bool     `koanf:"otlp_insecure"`
	ExportInterval  Duration `koanf:"export_interval"`
	TraceSampleRate float64  `koanf:"trace_sample_rate"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5000,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "~/.local/share/projectchat/db.sqlite",
		},
		Memory: MemoryConfig{
			BufferSize:       40,
			ContextWindow:    5,
			TranscriptFormat: FormatLines,
		},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.0-flash",
			Timeout:     Duration(60 * time.Second),
			Temperature: 0.7,
			MaxTokens:   2048,
			RateLimit:   2,
			Burst:       4,
			MaxRetries:  2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			ServiceName:     "projectchat",
			MetricsEnabled:  true,
			OTLPEndpoint:    "localhost:4317",
			OTLPProtocol:    "grpc",
			OTLPInsecure:    true,
			ExportInterval:  Duration(15 * time.Second),
			TraceSampleRate: 1.0,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path required for sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Memory.BufferSize < 1 {
		return fmt.Errorf("memory buffer size must be positive, got %d", c.Memory.BufferSize)
	}
	if c.Memory.ContextWindow < 1 {
		return fmt.Errorf("memory context window must be positive, got %d", c.Memory.ContextWindow)
	}
	if c.Memory.TranscriptFormat != FormatLines && c.Memory.TranscriptFormat != FormatJSONL {
		return fmt.Errorf("unknown transcript format %q", c.Memory.TranscriptFormat)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
		if c.LLM.Model == "" {
			return fmt.Errorf("llm model required for provider %s", c.LLM.Provider)
		}
	case ProviderStatic:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.RateLimit < 0 {
		return errors.New("llm rate limit cannot be negative")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm max retries cannot be negative")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Observability.ServiceName == "" {
		return errors.New("service name required")
	}
	return nil
}
