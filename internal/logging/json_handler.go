package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"showaudit/internal/services"
)

// newJSONHandler writes one JSON object per line. Errors become a group with
// the message and the per-show outcome class, so failed folders can be
// filtered by class. Empty folder and catalog_id fields are dropped.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			case FieldFolder, FieldCatalogID:
				if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
					return slog.Attr{}
				}
			case "error":
				if err, ok := attr.Value.Any().(error); ok && err != nil {
					return slog.Group("error",
						slog.String("message", err.Error()),
						slog.String("class", services.Reason(err)),
					)
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
