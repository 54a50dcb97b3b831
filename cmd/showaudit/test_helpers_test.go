package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"showaudit/internal/config"
	"showaudit/internal/testsupport"
)

const testAPIKey = "test-key"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *fakeTVDB
}

// fakeTVDB serves the subset of the v4 API the client uses.
type fakeTVDB struct {
	*httptest.Server

	mu      sync.Mutex
	series  map[string]fakeSeries
	results map[string][]map[string]any
	logins  int
}

type fakeSeries struct {
	name    string
	status  string
	seasons []int
}

func newFakeTVDB(t *testing.T) *fakeTVDB {
	t.Helper()
	f := &fakeTVDB{
		series: map[string]fakeSeries{
			"42": {name: "Show Name", status: "Continuing", seasons: []int{0, 1, 2, 3}},
			"7":  {name: "Finished", status: "Ended", seasons: []int{1, 2}},
		},
		results: map[string][]map[string]any{
			"Show Name": {{"tvdb_id": "42", "name": "Show Name", "year": "2019", "type": "series"}},
			"Finished":  {{"objectID": "series-7", "name": "Finished", "year": "2010", "type": "series"}},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["apikey"] != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		writeTestJSON(w, map[string]any{"status": "success", "data": map[string]string{"token": "tok"}})
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		data := f.results[r.URL.Query().Get("query")]
		f.mu.Unlock()
		if data == nil {
			data = []map[string]any{}
		}
		writeTestJSON(w, map[string]any{"data": data})
	})
	mux.HandleFunc("GET /series/{id}/extended", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		series, ok := f.series[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		seasons := make([]map[string]any, 0, len(series.seasons))
		for _, number := range series.seasons {
			seasons = append(seasons, map[string]any{"number": number, "type": map[string]string{"type": "official"}})
		}
		writeTestJSON(w, map[string]any{"data": map[string]any{
			"name":    series.name,
			"status":  map[string]string{"name": series.status},
			"seasons": seasons,
		}})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TVDB_API_KEY", "")
	t.Setenv("TVDB_PIN", "")

	server := newFakeTVDB(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTVDBKey(testAPIKey), testsupport.WithBaseURL(server.URL))
	testsupport.MakeLibrary(t, cfg.Paths.LibraryDir, map[string][]string{
		"Show.Name.2019.S01.1080p.WEB-DL.x264": {"Season 01", "Season 02", "Extras"},
		"Finished (2010)":                      {"Season 1", "Season 2"},
		"Unknown Thing":                        {"Season 1"},
	})

	configPath := filepath.Join(homeDir, ".config", "showaudit", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, server: server}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
library_dir = %q
state_dir = %q
log_dir = %q

[tvdb]
api_key = %q
base_url = %q

[scan]
show_delay_ms = 0

[logging]
level = "error"
`,
		cfg.Paths.LibraryDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.TVDB.APIKey,
		cfg.TVDB.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
