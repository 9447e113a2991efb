// Package category canonicalizes the free-form category tags attached to
// books so "sci-fi", "SciFi" and "Science Fiction" land on one tag.
package category

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a category to its lookup key.
//
//	"Science Fiction" -> "science-fiction"
//	"Sci-Fi/Fantasy"  -> "sci-fi-fantasy"
//	"Café Society"    -> "cafe-society"
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(strings.ReplaceAll(s, "&", "-and-"))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
