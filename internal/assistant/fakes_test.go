package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

type step struct {
	reply ModelReply
	err   error
}

// scriptedGenerator replays replies in order and records every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	steps    []step
	requests []GenerateRequest
}

func script(steps ...step) *scriptedGenerator { return &scriptedGenerator{steps: steps} }

func (g *scriptedGenerator) Generate(_ context.Context, req GenerateRequest) (ModelReply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.steps) == 0 {
		return nil, errors.New("unexpected generate call")
	}
	s := g.steps[0]
	g.steps = g.steps[1:]
	return s.reply, s.err
}

// memCatalog is an in-memory catalog with the store's lookup semantics.
type memCatalog struct {
	books   []domain.Book
	findErr error
	allErr  error
	lookups []store.LookupFilter
}

func contains(haystack, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (c *memCatalog) FindBooks(_ context.Context, f store.LookupFilter) ([]domain.Book, error) {
	c.lookups = append(c.lookups, f)
	if c.findErr != nil {
		return nil, c.findErr
	}
	out := []domain.Book{}
	for _, b := range c.books {
		if len(out) == f.Limit {
			break
		}
		if !contains(b.Title, f.Title) || !contains(b.Author, f.Author) {
			continue
		}
		if f.Category != "" && !contains(strings.Join(b.Categories, "\x00"), f.Category) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *memCatalog) AllBooks(context.Context) ([]domain.Book, error) {
	if c.allErr != nil {
		return nil, c.allErr
	}
	return c.books, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func library() *memCatalog {
	return &memCatalog{books: []domain.Book{
		{ID: "book-1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Categories: []string{"Fantasy", "Adventure"}, Description: "<p>There and back again.</p>"},
		{ID: "book-2", Title: "Dune", Author: "Frank Herbert", Categories: []string{"Science Fiction"}},
		{ID: "book-3", Title: "Treasure Island", Author: "Robert Louis Stevenson", Categories: []string{"Adventure"}},
		{ID: "book-4", Title: "It", Author: "Stephen King", Categories: []string{"Horror"}},
		{ID: "book-5", Title: "Dune Messiah", Author: "Frank Herbert", Categories: []string{"Science Fiction"}},
	}}
}
