package textutil

import (
	"math"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Ratio is the normalized indel similarity of two prepared strings:
// 2*LCS / (len(a)+len(b)), so a substitution costs a deletion plus an
// insertion and a pure length difference is penalized less than by
// Levenshtein.
func Ratio(a, b string) int {
	return ratio(Prepare(a), Prepare(b))
}

// PartialRatio scores the shorter string against its best-aligned window in
// the longer one, so a name contained in a longer title scores highly.
// Windows that overhang either end of the longer string are tried too.
func PartialRatio(a, b string) int {
	pa, pb := []rune(Prepare(a)), []rune(Prepare(b))
	if len(pa) > len(pb) {
		pa, pb = pb, pa
	}
	if len(pa) == 0 {
		if len(pb) == 0 {
			return 100
		}
		return 0
	}

	short := string(pa)
	best := 0
	for start := 1 - len(pa); start < len(pb); start++ {
		lo, hi := max(start, 0), min(start+len(pa), len(pb))
		score := ratio(short, string(pb[lo:hi]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares two strings after sorting their tokens, making the
// score insensitive to word order.
func TokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(text string) string {
	tokens := Tokenize(text)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

func ratio(a, b string) int {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	common := edlib.LCS(a, b)
	return int(math.Round(100 * float64(2*common) / float64(total)))
}
