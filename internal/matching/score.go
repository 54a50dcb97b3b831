package matching

import (
	"slices"
	"strconv"
	"strings"

	"showaudit/internal/catalog"
	"showaudit/internal/naming"
	"showaudit/internal/textutil"
)

const (
	sameYearBonus     = 20
	adjacentYearBonus = 10
	yearMismatch      = -10
	maxScore          = 100
)

// Scored is a candidate with its similarity before and after the year adjustment.
type Scored struct {
	Candidate catalog.Candidate
	Base      int
	Score     int
}

// BaseSimilarity is the best of the token-sort and partial ratios against
// the candidate name and the token-sort ratio against each alias.
func BaseSimilarity(query string, candidate catalog.Candidate) int {
	best := max(
		textutil.TokenSortRatio(query, candidate.Name),
		textutil.PartialRatio(query, candidate.Name),
	)
	for _, alias := range candidate.Aliases {
		best = max(best, textutil.TokenSortRatio(query, alias))
	}
	return best
}

// YearAdjustment returns the score delta for the folder year against the
// candidate's raw catalog year. It is zero unless both parse.
func YearAdjustment(query naming.Result, candidateYear string) int {
	if !query.HasYear {
		return 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(candidateYear))
	if err != nil {
		return 0
	}
	switch diff := abs(query.Year - year); {
	case diff == 0:
		return sameYearBonus
	case diff == 1:
		return adjacentYearBonus
	default:
		return yearMismatch
	}
}

// Score computes the adjusted score for one candidate. The result is
// clamped at 100 with no floor.
func Score(query naming.Result, candidate catalog.Candidate) Scored {
	base := BaseSimilarity(query.Name, candidate)
	return Scored{
		Candidate: candidate,
		Base:      base,
		Score:     min(base+YearAdjustment(query, candidate.Year), maxScore),
	}
}

// Rank scores every candidate and stable-sorts by score descending, so ties
// keep catalog order.
func Rank(query naming.Result, candidates []catalog.Candidate) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, Score(query, candidate))
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return b.Score - a.Score
	})
	return scored
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
