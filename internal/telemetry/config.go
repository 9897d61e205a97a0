package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/projectchat/internal/config"
)

// OTLP protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// Config holds telemetry export settings.
type Config struct {
	Enabled        bool
	Endpoint       string
	Protocol       string
	Insecure       bool // no TLS
	ServiceName    string
	ServiceVersion string
	ExportInterval time.Duration
	SampleRate     float64
	ShutdownAfter  time.Duration
}

// FromConfig derives a telemetry Config from the observability settings.
func FromConfig(obs config.ObservabilityConfig, version string) Config {
	return Config{
		Enabled:        obs.OTLPEnabled,
		Endpoint:       obs.OTLPEndpoint,
		Protocol:       obs.OTLPProtocol,
		Insecure:       obs.OTLPInsecure,
		ServiceName:    obs.ServiceName,
		ServiceVersion: version,
		ExportInterval: obs.ExportInterval.Duration(),
		SampleRate:     obs.TraceSampleRate,
		ShutdownAfter:  5 * time.Second,
	}
}

// Validate checks configuration for errors.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return errors.New("service name is required when telemetry is enabled")
	}
	switch c.Protocol {
	case "", ProtocolGRPC, ProtocolHTTP:
	default:
		return fmt.Errorf("unknown otlp protocol %q", c.Protocol)
	}
	if c.Insecure && !c.isLocalEndpoint() {
		return errors.New("insecure connections to remote endpoints are not allowed; disable insecure or use a local endpoint")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %f", c.SampleRate)
	}
	if c.ExportInterval <= 0 {
		return errors.New("export interval must be positive")
	}
	return nil
}

func (c Config) isLocalEndpoint() bool {
	host := stripScheme(c.Endpoint)

	if strings.HasPrefix(host, "[") {
		if idx := strings.Index(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	} else if strings.Count(host, ":") == 1 {
		host = host[:strings.LastIndex(host, ":")]
	}

	return host == "localhost" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.")
}

// stripScheme removes http:// or https:// from an endpoint URL.
// The OTLP exporters expect host:port.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
