// Package logging configures structured logging for the gateway.
//
// It builds slog loggers from configuration (level, format, source
// annotation) and carries request-scoped fields (request ID, provider,
// model) through context so every log line on a request path shares the
// same correlation keys.
//
// Usage:
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	logging.FromContext(ctx, logger).Info("invocation served", "cost", cost)
package logging
