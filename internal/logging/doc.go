// Package logging builds the slog loggers used across wordreel.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for log aggregation. Attr helpers keep field names consistent
// between the daemon, the pipeline workers, and the API server.
package logging
