// Package logging provides the slog-based logging stack shared by the daemon
// and CLI: console and JSON handlers, standardized field names, attr helpers,
// and retention cleanup for on-disk log files.
package logging
