package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FailureLogPattern matches the per-run failure logs for retention pruning.
const FailureLogPattern = "errors-*.log"

// FailureEntry is one JSON line in a per-run failure log.
type FailureEntry struct {
	Time   string `json:"ts"`
	RunID  string `json:"run_id,omitempty"`
	Folder string `json:"folder"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error"`
}

// FailureLog records per-show failures for a single scan run. The file is
// created on the first Record call so clean runs leave nothing behind.
type FailureLog struct {
	mu    sync.Mutex
	path  string
	runID string
	file  *os.File
	count int
	now   func() time.Time
}

// NewFailureLog prepares a failure log in dir named after start and runID.
func NewFailureLog(dir, runID string, start time.Time) *FailureLog {
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	name := fmt.Sprintf("errors-%s", start.UTC().Format("20060102T150405Z"))
	if prefix != "" {
		name += "-" + prefix
	}
	return &FailureLog{
		path:  filepath.Join(dir, name+".log"),
		runID: runID,
		now:   time.Now,
	}
}

// Path returns the log location, whether or not it has been written.
func (l *FailureLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Count reports how many failures were recorded.
func (l *FailureLog) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Record appends a failure entry for folder.
func (l *FailureLog) Record(folder, reason string, err error) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return fmt.Errorf("create failure log directory: %w", err)
		}
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open failure log: %w", err)
		}
		l.file = file
	}

	entry := FailureEntry{
		Time:   l.now().UTC().Format(time.RFC3339),
		RunID:  l.runID,
		Folder: folder,
		Reason: strings.TrimSpace(reason),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return fmt.Errorf("encode failure entry: %w", marshalErr)
	}
	if _, writeErr := l.file.Write(append(line, '\n')); writeErr != nil {
		return fmt.Errorf("write failure log: %w", writeErr)
	}
	l.count++
	return nil
}

// Close flushes and closes the underlying file if one was opened.
func (l *FailureLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
