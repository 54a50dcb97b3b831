// Package textutil provides the fuzzy string similarity metrics used to score
// catalog candidates against a cleaned folder name.
//
// All metrics return an integer in [0,100]. Inputs are case-folded and
// punctuation is treated as a token separator before comparison, so
// "Marvel's Agents of S.H.I.E.L.D." and "marvels agents of s h i e l d"
// compare on the same footing. Similarity is indel based; the longest common
// subsequence comes from github.com/hbollon/go-edlib.
package textutil
