package service

import (
	"errors"
	"testing"
)

func TestParseTermSlug(t *testing.T) {
	season, year, err := ParseTermSlug("fall-2024")
	if err != nil {
		t.Fatalf("parse should succeed: %v", err)
	}
	if season != "Fall" || year != "2024" {
		t.Errorf("got %s %s, want Fall 2024", season, year)
	}

	// Uppercase input normalizes.
	season, year, err = ParseTermSlug("SPRING-2026")
	if err != nil {
		t.Fatalf("parse should succeed: %v", err)
	}
	if season != "Spring" || year != "2026" {
		t.Errorf("got %s %s, want Spring 2026", season, year)
	}

	for _, bad := range []string{"fall2024", "fall-24", "fall-20245", "-2024", "fall-"} {
		if _, _, err := ParseTermSlug(bad); !errors.Is(err, ErrBadTermSlug) {
			t.Errorf("ParseTermSlug(%q) should fail, got: %v", bad, err)
		}
	}
}

func TestTermSlug_RoundTrip(t *testing.T) {
	slug := TermSlug("Fall", "2025")
	if slug != "fall-2025" {
		t.Errorf("got %s, want fall-2025", slug)
	}
	season, year, err := ParseTermSlug(slug)
	if err != nil || season != "Fall" || year != "2025" {
		t.Errorf("round trip failed: %s %s %v", season, year, err)
	}
}

func TestDoorcardSlug(t *testing.T) {
	slug := DoorcardSlug("Jane Q. Doe", "Fall", "2025", "abcdef12-3456-7890-abcd-ef1234567890")
	if slug != "jane-q-doe-fall-2025-abcdef12" {
		t.Errorf("got %s", slug)
	}

	// Empty names still produce a usable slug.
	slug = DoorcardSlug("", "Spring", "2026", "short")
	if slug != "doorcard-spring-2026-short" {
		t.Errorf("got %s", slug)
	}
}
