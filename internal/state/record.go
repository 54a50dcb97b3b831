package state

import (
	"strconv"
	"strings"
	"time"
)

// Record is the persisted reconciliation result for one show. Missing and
// Extra are derived from Seasons and LocalSeasons by the reconciler.
// ReportedMissing is the missing set last written to the report; Upsert
// ignores it and only MarkReported changes it.
type Record struct {
	CatalogID       string
	Title           string
	Folder          string
	Confidence      int
	Seasons         []int
	LocalSeasons    []int
	Missing         []int
	Extra           []int
	ReportedMissing []int
	Status          string
	Provenance      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Complete reports whether every catalog season is present locally.
func (r Record) Complete() bool {
	return len(r.Missing) == 0
}

// FormatSeasons renders season numbers as "1, 2, 5" for reports and tables.
func FormatSeasons(seasons []int) string {
	parts := make([]string, len(seasons))
	for i, n := range seasons {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
