package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Folder tags a line with the show folder it concerns.
func Folder(name string) Attr { return slog.String(FieldFolder, name) }

// CatalogID tags a line with a TheTVDB series id.
func CatalogID(id string) Attr { return slog.String(FieldCatalogID, id) }

// Seasons renders a season list as "{1, 2, 5}" so empty sets stay visible
// in both the console and JSON output.
func Seasons(key string, seasons []int) Attr {
	parts := make([]string, len(seasons))
	for i, n := range seasons {
		parts[i] = strconv.Itoa(n)
	}
	return slog.String(key, "{"+strings.Join(parts, ", ")+"}")
}

// MatchDecision builds the attributes logged for one resolver outcome.
func MatchDecision(result, reason string, score, threshold int) []Attr {
	return []Attr{
		String(FieldDecisionType, "match_resolution"),
		String("decision_result", result),
		String("decision_reason", reason),
		Int("score", score),
		Int("threshold", threshold),
	}
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// FieldImpact is the standardized key for what a warning means for the scan.
const FieldImpact = "impact"

// WarnWithContext logs a per-show warning. event_type is always set, and
// error_hint and impact get scan-level defaults when attrs omit them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelWarn, msg, eventType, attrs, String(FieldImpact, "show not reconciled this run"))
}

// ErrorWithContext logs an error with event_type and a default error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelError, msg, eventType, attrs)
}

func logWithDefaults(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr, extra ...Attr) {
	if logger == nil {
		return
	}
	defaults := append([]Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, "see the failure log for this run"),
	}, extra...)
	for _, def := range defaults {
		if !hasKey(attrs, def.Key) {
			attrs = append(attrs, def)
		}
	}
	logger.Log(context.Background(), level, msg, Args(attrs...)...)
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
