package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// MakeLibrary creates one directory per show under root with the listed
// subdirectories, e.g. {"Lost": {"Season 01", "Extras"}}.
func MakeLibrary(t testing.TB, root string, shows map[string][]string) {
	t.Helper()

	for show, children := range shows {
		showDir := filepath.Join(root, show)
		if err := os.MkdirAll(showDir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", showDir, err)
		}
		for _, child := range children {
			if err := os.MkdirAll(filepath.Join(showDir, child), 0o755); err != nil {
				t.Fatalf("mkdir %s/%s: %v", show, child, err)
			}
		}
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
