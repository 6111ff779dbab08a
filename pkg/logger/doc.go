// Package logger configures log/slog for the service: a factory with
// JSON/text output, optional context-driven attribute injection, and typed
// attribute helpers for the domain (tenant, payment, invoice identifiers).
package logger
