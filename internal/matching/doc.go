// Package matching scores catalog candidates against a cleaned folder name
// and decides which one, if any, is the show.
//
// Scores are fuzzy title similarity in [0,100] plus a release-year
// adjustment (+20 same year, +10 one year apart, -10 otherwise), clamped at
// 100. The top candidate is auto-accepted at or above the threshold; below it
// a Disambiguator may confirm it, substitute a catalog id, or reject.
package matching
