package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"showaudit/internal/services"
)

const component = "inventory"

var seasonPattern = regexp.MustCompile(`(?i)(season|s)\s*(\d+)`)

// Show is one show folder discovered under the library root.
type Show struct {
	Folder string
	Path   string
}

// ListShows returns the immediate subdirectories of root in lexicographic
// order. Hidden directories are skipped.
func ListShows(root string) ([]Show, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrLocalIO, component, "list shows", fmt.Sprintf("read library %s", root), err)
	}
	shows := make([]Show, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(root, name)
		if !isDir(entry, path) {
			continue
		}
		shows = append(shows, Show{Folder: name, Path: path})
	}
	slices.SortFunc(shows, func(a, b Show) int {
		return strings.Compare(a.Folder, b.Folder)
	})
	return shows, nil
}

// LocalSeasons returns the season numbers present under showPath, sorted and
// deduplicated. Only immediate subdirectories whose name contains a season
// marker count; files and other folders are ignored.
func LocalSeasons(showPath string) ([]int, error) {
	entries, err := os.ReadDir(showPath)
	if err != nil {
		return nil, services.Wrap(services.ErrLocalIO, component, "local seasons", fmt.Sprintf("read show %s", showPath), err)
	}
	seasons := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !isDir(entry, filepath.Join(showPath, entry.Name())) {
			continue
		}
		if number, ok := ParseSeason(entry.Name()); ok {
			seasons = append(seasons, number)
		}
	}
	slices.Sort(seasons)
	return slices.Compact(seasons), nil
}

// ParseSeason extracts the season number from a folder name. Season 0
// (specials) is not a season.
func ParseSeason(name string) (int, bool) {
	match := seasonPattern.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	number, err := strconv.Atoi(match[2])
	if err != nil || number <= 0 {
		return 0, false
	}
	return number, true
}

// isDir follows symlinks so linked season folders count.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
