// Package logging assembles structured slog loggers for showaudit.
//
// It owns the console and JSON handlers, routes every record to the persistent
// log file alongside the console, and exposes context-aware helpers so the
// reconciler can tag lines with the run id, the show folder being processed,
// and the current phase. FailureLog captures per-show failures for a single
// scan in a separate JSON-lines file.
package logging
