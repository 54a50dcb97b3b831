package catalog

import (
	"context"
	"slices"
	"strings"
)

// Candidate is one search result from the remote catalog. Year is kept as the
// raw catalog string; scoring parses it.
type Candidate struct {
	ID      string
	Name    string
	Aliases []string
	Year    string
	Status  string
}

// Client is the catalog contract the reconciler depends on. A token obtained
// from Login is reused for every call in a scan.
type Client interface {
	Login(ctx context.Context) (string, error)
	Search(ctx context.Context, token, query string) ([]Candidate, error)
	// Seasons returns strictly positive season numbers, deduplicated and sorted.
	Seasons(ctx context.Context, token, id string) ([]int, error)
}

// Series is the per-show detail a richer client can return in one call.
type Series struct {
	ID      string
	Name    string
	Status  string
	Seasons []int
}

// SeriesLookup is implemented by clients that can return the lifecycle status
// alongside the season list. The reconciler prefers it when available so the
// status is refreshed even when search omitted it.
type SeriesLookup interface {
	Series(ctx context.Context, token, id string) (Series, error)
}

// NormalizeSeasons drops non-positive numbers, deduplicates, and sorts.
func NormalizeSeasons(numbers []int) []int {
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n > 0 {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// CleanAliases trims aliases and removes blanks and case-insensitive duplicates
// of the primary name or each other, preserving catalog order.
func CleanAliases(name string, aliases []string) []string {
	if len(aliases) == 0 {
		return nil
	}
	seen := map[string]struct{}{strings.ToLower(strings.TrimSpace(name)): {}}
	out := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		key := strings.ToLower(alias)
		if alias == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, alias)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
