// Package telemetry wires OpenTelemetry trace and metric export for projectchat.
//
// New installs global tracer and meter providers backed by OTLP exporters
// (gRPC or HTTP/protobuf). When export is disabled the global no-op
// providers stay in place, so instrumented packages never need to check.
//
// Usage:
//
//	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Observability, version), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Tests use NewTestTelemetry to record spans in memory.
package telemetry
