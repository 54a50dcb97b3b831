package preflight

import (
	"context"

	"showaudit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Authenticator is the part of a catalog client preflight exercises.
type Authenticator interface {
	Login(ctx context.Context) (string, error)
}

// RunAll executes the filesystem checks for cfg and, when auth is non-nil,
// a catalog login.
func RunAll(ctx context.Context, cfg *config.Config, auth Authenticator) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if auth != nil {
		results = append(results, CheckCatalogLogin(ctx, auth, cfg.RequestTimeout()))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
