package assistant

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/textutil"
)

// mentionHistoryTurns is how many trailing history turns are scanned along
// with the reply.
const mentionHistoryTurns = 4

// mentionText joins the reply with the text of the last few history turns.
func mentionText(reply string, history []domain.Turn) string {
	if len(history) > mentionHistoryTurns {
		history = history[len(history)-mentionHistoryTurns:]
	}
	parts := make([]string, 0, len(history))
	for _, t := range history {
		parts = append(parts, t.Text)
	}
	if len(parts) == 0 {
		return reply
	}
	return reply + " " + strings.Join(parts, " \n ")
}

// findMentions returns the catalog books whose title appears in text as a
// whole word, ignoring case. Each book appears once, ordered by where its
// title first occurs. When several books share a title the first in catalog
// order is used.
func findMentions(text string, catalog []domain.Book) []domain.Book {
	folded := textutil.Fold(text)
	if folded == "" {
		return []domain.Book{}
	}

	type hit struct {
		pos  int
		book domain.Book
	}
	var hits []hit
	seenTitles := make(map[string]struct{}, len(catalog))
	for _, b := range catalog {
		title := textutil.Fold(b.Title)
		if title == "" {
			continue
		}
		if _, dup := seenTitles[title]; dup {
			continue
		}
		seenTitles[title] = struct{}{}
		if pos := indexWholeWord(folded, title); pos >= 0 {
			hits = append(hits, hit{pos: pos, book: b})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]domain.Book, len(hits))
	for i, h := range hits {
		out[i] = h.book
	}
	return out
}

// indexWholeWord returns the first index of needle in s that is not
// directly preceded or followed by a letter or digit, or -1.
func indexWholeWord(s, needle string) int {
	for offset := 0; offset <= len(s)-len(needle); {
		i := strings.Index(s[offset:], needle)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(needle)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}
