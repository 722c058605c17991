// Package observability installs the process-wide slog logger.
//
// Logs go to stderr or, for a tray process without a console, to a rotating
// file. Optionally they are exported through the OpenTelemetry logs SDK
// (stdout, OTLP/gRPC or OTLP/HTTP) with a minimum severity filter.
package observability
