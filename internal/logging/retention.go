package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneFailureLogs removes per-run failure logs in dir whose modification
// time is older than retentionDays and returns how many were removed. The
// failure log of the running scan, keep, is never removed even when an
// earlier run with the same name left it behind. A retentionDays value of 0
// disables pruning. The persistent showaudit.log is never touched.
func PruneFailureLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	keepAbs := absOrSelf(keep)
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if matched, err := filepath.Match(FailureLogPattern, name); err != nil || !matched {
			continue
		}
		path := absOrSelf(filepath.Join(dir, name))
		if keep != "" && path == keepAbs {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "failure log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on paths.log_dir"),
				String(FieldImpact, "old failure log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("failure log pruned",
				String("path", path),
				Duration("age", time.Since(info.ModTime()).Round(time.Hour)),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	if removed > 0 && logger != nil {
		logger.Info("old failure logs pruned", Int("removed", removed), Int("retention_days", retentionDays))
	}
	return removed
}

func absOrSelf(path string) string {
	if strings.TrimSpace(path) == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
