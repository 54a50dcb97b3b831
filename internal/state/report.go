package state

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"showaudit/internal/services"
)

// ReportHeader is the first row of the missing-seasons report.
var ReportHeader = []string{"Show Title", "Folder Name", "TVDB ID", "Missing Season #'s"}

// Report appends missing-season rows to a CSV file.
type Report struct {
	mu   sync.Mutex
	path string
}

// NewReport returns a report writer for path. The file is created on the
// first Append.
func NewReport(path string) *Report {
	return &Report{path: path}
}

// Path returns the report location.
func (r *Report) Path() string {
	return r.path
}

// Append writes one row for record. The header is written first when the file
// does not exist yet or is empty.
func (r *Report) Append(record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrPersistence, component, "report", "create report directory", err)
		}
	}
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "report", "open report", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "report", "stat report", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(ReportHeader); err != nil {
			return services.Wrap(services.ErrPersistence, component, "report", "write header", err)
		}
	}
	row := []string{record.Title, record.Folder, record.CatalogID, FormatSeasons(record.Missing)}
	if err := writer.Write(row); err != nil {
		return services.Wrap(services.ErrPersistence, component, "report", "write row", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrPersistence, component, "report", fmt.Sprintf("flush %s", r.path), err)
	}
	return nil
}
