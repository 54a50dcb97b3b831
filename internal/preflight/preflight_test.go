package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"showaudit/internal/services"
	"showaudit/internal/testsupport"
)

type fakeAuth struct {
	token string
	err   error
	wait  bool
}

func (f fakeAuth) Login(ctx context.Context) (string, error) {
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.token, f.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryReadable_Blank(t *testing.T) {
	if result := CheckDirectoryReadable("library", ""); result.Passed || result.Detail != "not configured" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckCatalogLogin(t *testing.T) {
	tests := []struct {
		name   string
		auth   fakeAuth
		passed bool
		detail string
	}{
		{"ok", fakeAuth{token: "abc"}, true, "credentials accepted"},
		{"empty token", fakeAuth{}, false, "login returned an empty token"},
		{"rejected", fakeAuth{err: services.Wrap(services.ErrAuth, "tvdb", "login", "401", nil)}, false, "credentials rejected (check tvdb.api_key and tvdb.pin)"},
		{"other", fakeAuth{err: errors.New("boom")}, false, "boom"},
		{"timeout", fakeAuth{wait: true}, false, "login timed out (catalog unresponsive)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCatalogLogin(context.Background(), tt.auth, 20*time.Millisecond)
			if result.Passed != tt.passed || result.Detail != tt.detail {
				t.Fatalf("got %+v", result)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 directory checks without a catalog, got %d", len(results))
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}

	results = RunAll(context.Background(), cfg, fakeAuth{err: errors.New("down")})
	if len(results) != 4 || AllPassed(results) {
		t.Fatalf("expected failing catalog check: %+v", results)
	}
	if results[3].Name != "TheTVDB login" {
		t.Fatalf("unexpected check order: %+v", results)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatalf("expected nil, got %+v", results)
	}
}
