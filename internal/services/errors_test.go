package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"showaudit/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpstream, "tvdb", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"tvdb", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
		skip  bool
	}{
		{"no match", services.Wrap(services.ErrNoMatch, "matching", "resolve", "empty", nil), false, true},
		{"low confidence", services.Wrap(services.ErrLowConfidence, "matching", "resolve", "rejected", nil), false, true},
		{"duplicate", services.Wrap(services.ErrDuplicate, "reconcile", "claim", "42", nil), false, true},
		{"upstream", services.Wrap(services.ErrUpstream, "tvdb", "seasons", "500", nil), false, false},
		{"local io", services.Wrap(services.ErrLocalIO, "inventory", "list", "denied", nil), false, false},
		{"auth", services.Wrap(services.ErrAuth, "tvdb", "login", "401", nil), true, false},
		{"persistence", fmt.Errorf("outer: %w", services.Wrap(services.ErrPersistence, "state", "upsert", "locked", nil)), true, false},
		{"plain", errors.New("other"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal = %v, want %v", got, tc.fatal)
			}
			if got := services.IsSkip(tc.err); got != tc.skip {
				t.Fatalf("IsSkip = %v, want %v", got, tc.skip)
			}
		})
	}
}

func TestReason(t *testing.T) {
	if got := services.Reason(nil); got != "ok" {
		t.Fatalf("unexpected reason for nil: %q", got)
	}
	if got := services.Reason(services.Wrap(services.ErrNoMatch, "", "", "x", nil)); got != "no catalog match found" {
		t.Fatalf("unexpected reason: %q", got)
	}
	if got := services.Reason(services.Wrap(services.ErrDuplicate, "", "", "x", nil)); got != "duplicate of another folder" {
		t.Fatalf("Reason(duplicate) = %q", got)
	}
	if got := services.Reason(errors.New("boom")); got != "unexpected error" {
		t.Fatalf("unexpected reason: %q", got)
	}
}
