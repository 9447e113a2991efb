package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects one page of an ordered listing.
type PaginationParams struct {
	Limit  int    // items per page, defaults to DefaultPageSize
	Cursor string // opaque cursor from a previous page, empty for the first page
}

// Normalize clamps the limit into [1, MaxPageSize].
func (p *PaginationParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// Cursor marks the last row of a page in a listing ordered by
// (CreatedAt, Seq) descending. The zero Cursor means the first page.
type Cursor struct {
	CreatedAt string
	Seq       int64
}

// IsZero reports whether c is the first-page cursor.
func (c Cursor) IsZero() bool { return c.Seq <= 0 }

// EncodeCursor turns c into an opaque cursor string.
func EncodeCursor(c Cursor) string {
	if c.IsZero() {
		return ""
	}
	raw := c.CreatedAt + "|" + strconv.FormatInt(c.Seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. An empty cursor decodes to the zero
// Cursor.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, ErrInvalidInput.WithMessage("invalid cursor").WithCause(err)
	}
	at, seqText, ok := strings.Cut(string(raw), "|")
	seq, err := strconv.ParseInt(seqText, 10, 64)
	if !ok || at == "" || err != nil || seq <= 0 {
		return Cursor{}, ErrInvalidInput.WithMessage(fmt.Sprintf("invalid cursor %q", cursor))
	}
	return Cursor{CreatedAt: at, Seq: seq}, nil
}
