package reconcile

import (
	"slices"

	"showaudit/internal/state"
)

// SeasonSet is a sorted set of strictly positive season numbers.
type SeasonSet []int

// NewSeasonSet builds a set from numbers, dropping anything not > 0.
func NewSeasonSet(numbers ...int) SeasonSet {
	out := make(SeasonSet, 0, len(numbers))
	for _, n := range numbers {
		if n > 0 {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Contains reports whether n is in the set.
func (s SeasonSet) Contains(n int) bool {
	_, found := slices.BinarySearch(s, n)
	return found
}

// Difference returns the members of s that are not in other.
func (s SeasonSet) Difference(other SeasonSet) SeasonSet {
	out := SeasonSet{}
	for _, n := range s {
		if !other.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Equal reports whether both sets hold the same members.
func (s SeasonSet) Equal(other SeasonSet) bool {
	return slices.Equal(s, other)
}

func (s SeasonSet) String() string {
	return "{" + state.FormatSeasons(s) + "}"
}

// Input is everything needed to build a record for one show.
type Input struct {
	CatalogID  string
	Title      string
	Folder     string
	Confidence int
	Status     string
	Provenance string
	Catalog    SeasonSet
	Local      SeasonSet
}

// NewRecord assembles a record and derives Missing (catalog minus local) and
// Extra (local minus catalog). These are never set any other way.
func NewRecord(in Input) state.Record {
	catalogSet := NewSeasonSet(in.Catalog...)
	localSet := NewSeasonSet(in.Local...)
	return state.Record{
		CatalogID:    in.CatalogID,
		Title:        in.Title,
		Folder:       in.Folder,
		Confidence:   in.Confidence,
		Seasons:      catalogSet,
		LocalSeasons: localSet,
		Missing:      catalogSet.Difference(localSet),
		Extra:        localSet.Difference(catalogSet),
		Status:       in.Status,
		Provenance:   in.Provenance,
	}
}
