package catalog

import (
	"slices"
	"testing"
)

func TestNormalizeSeasons(t *testing.T) {
	got := NormalizeSeasons([]int{3, 0, 1, -2, 3, 2, 1})
	want := []int{1, 2, 3}
	if !slices.Equal(got, want) {
		t.Fatalf("NormalizeSeasons = %v, want %v", got, want)
	}
	if got := NormalizeSeasons(nil); len(got) != 0 {
		t.Fatalf("NormalizeSeasons(nil) = %v, want empty", got)
	}
}

func TestCleanAliases(t *testing.T) {
	got := CleanAliases("The Office", []string{" the office ", "", "The Office (US)", "the office (us)", "Office"})
	want := []string{"The Office (US)", "Office"}
	if !slices.Equal(got, want) {
		t.Fatalf("CleanAliases = %v, want %v", got, want)
	}
	if got := CleanAliases("x", []string{" "}); got != nil {
		t.Fatalf("CleanAliases should return nil when nothing remains, got %v", got)
	}
}
