// Package logging wraps zap with context-aware methods.
//
// Every method takes a context.Context and appends correlation fields found
// in it (request.id, project.id) before writing the entry:
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithProjectID(ctx, "42")
//	logger.Info(ctx, "turn completed", zap.Int("messages", 2))
//
// Output is JSON by default. Keys such as api_key, token and authorization
// are redacted by the encoder, and values matching bearer/api-key patterns
// are masked. Sampling below error level is optional.
//
// Tests use NewTestLogger, which records entries in memory:
//
//	logger := logging.NewTestLogger()
//	svc := NewService(logger.Logger)
//	logger.AssertLogged(t, zapcore.WarnLevel, "skipping malformed")
package logging
