// Package textutil holds the text normalisation shared by catalog matching:
// case folding for lookups and plain-text snippets of book descriptions.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns s in a form suitable for case-insensitive comparison:
// NFKC-normalised, Unicode case folded, and with runs of whitespace collapsed.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

var (
	htmlTag       = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	markdownNoise = regexp.MustCompile("[*_`#>]+")
)

// Plain converts an HTML description to plain text. Input without HTML is
// returned trimmed.
func Plain(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTag.MatchString(strings.ToLower(s)) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	md = markdownNoise.ReplaceAllString(md, "")
	return strings.Join(strings.Fields(md), " ")
}

// Snippet returns at most maxRunes runes of the plain-text form of s, cut on
// a word boundary and suffixed with an ellipsis when shortened.
func Snippet(s string, maxRunes int) string {
	s = Plain(s)
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	cut := string([]rune(s)[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > maxRunes/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
