// Package naming turns raw show folder names into search queries.
//
// Normalize removes season/episode markers, resolution, codec and source tags
// and the release year, then collapses separators. The release year is
// captured before it is removed so the matcher can use it as a tie-break.
package naming
