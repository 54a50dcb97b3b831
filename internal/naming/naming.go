package naming

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Result is the cleaned form of a show folder name.
type Result struct {
	Name    string
	Year    int
	HasYear bool
}

var (
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	releaseTokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS\d{1,2}E\d{1,2}\b`),
		regexp.MustCompile(`(?i)\bS\d{1,2}\b`),
		regexp.MustCompile(`(?i)\b(720p|1080p|2160p|4k)\b`),
		regexp.MustCompile(`(?i)\b(x264|x265|h264|h265|hevc)\b`),
		regexp.MustCompile(`(?i)\b(bluray|web[-_. ]?dl|webrip|hdr)\b`),
	}

	emptyBracketPattern = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	separatorPattern    = regexp.MustCompile(`[._\-\s]+`)
)

// maxPasses bounds the fixed-point loop in Normalize. Each pass either shrinks
// the name or leaves it unchanged, so a handful is always enough in practice.
const maxPasses = 8

// Normalize strips release metadata from a folder name and extracts the
// release year. Only the basename of raw is considered. It never fails: a name
// without a year yields HasYear == false.
func Normalize(raw string) Result {
	name := strings.TrimSpace(raw)
	if name == "" {
		return Result{}
	}
	name = filepath.Base(strings.TrimRight(name, `/\`))
	if name == "." || name == string(filepath.Separator) {
		return Result{}
	}
	// RE2 treats '_' as a word character, which would hide tokens glued to it.
	name = strings.ReplaceAll(name, "_", " ")

	var result Result
	if match := yearPattern.FindStringSubmatch(name); match != nil {
		year, err := strconv.Atoi(match[1])
		if err == nil {
			result.Year = year
			result.HasYear = true
		}
	}

	// Removing a token can expose another one, so repeat until stable to keep
	// Normalize(Normalize(x).Name).Name == Normalize(x).Name.
	for range maxPasses {
		next := cleanPass(name)
		if next == name {
			break
		}
		name = next
	}
	result.Name = name
	return result
}

func cleanPass(name string) string {
	for _, pattern := range releaseTokenPatterns {
		name = pattern.ReplaceAllString(name, " ")
	}
	name = yearPattern.ReplaceAllString(name, " ")
	name = emptyBracketPattern.ReplaceAllString(name, " ")
	name = separatorPattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
