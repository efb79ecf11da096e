// Package observability provides structured logging, Prometheus metrics,
// and graceful shutdown handling for the audit trail services.
//
// Logging uses stdlib slog with a JSON handler; loggers are immutable and
// carry fields via WithField/WithFields/WithError. Metrics cover the audit
// write path, history reads, and retention sweeps, and are served over
// HTTP via Metrics.Handler.
package observability
