package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ── slug helpers ──

var ErrBadTermSlug = errors.New("term slug must look like fall-2025")

// termSlugRe matches "{lowercased-season}-{4-digit-year}", e.g. "fall-2024".
var termSlugRe = regexp.MustCompile(`^(\w+)-(\d{4})$`)

// ParseTermSlug splits a public term slug into a display-cased season and a
// year string ("fall-2025" → "Fall", "2025").
func ParseTermSlug(slug string) (season string, year string, err error) {
	m := termSlugRe.FindStringSubmatch(strings.ToLower(slug))
	if m == nil {
		return "", "", ErrBadTermSlug
	}
	season = strings.ToUpper(m[1][:1]) + m[1][1:]
	return season, m[2], nil
}

// TermSlug is the inverse: ("Fall", "2025") → "fall-2025".
func TermSlug(term, year string) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(term), year)
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// DoorcardSlug derives the public slug for a doorcard from the owner's name
// and the term, e.g. "jane-doe-fall-2025". A short id suffix keeps slugs
// unique across faculty with the same name.
func DoorcardSlug(name, term, year, doorcardID string) string {
	base := slugCleanRe.ReplaceAllString(strings.ToLower(name), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "doorcard"
	}
	suffix := doorcardID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s-%s", base, TermSlug(term, year), suffix)
}
