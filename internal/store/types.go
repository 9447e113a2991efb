// Package store defines the persistence contracts shared by the SQLite
// implementation and the services: query filters, result shapes, and errors.
package store

import "github.com/shelfwise/shelfwise-server/internal/domain"

// BookFilter selects books for catalog listings.
type BookFilter struct {
	// Query matches title or author, case-insensitive substring.
	Query string
	// Category restricts to books carrying the category, ignoring case.
	Category string
	PaginationParams
}

// LookupFilter is the assistant's catalog lookup. Every non-empty field is a
// case-insensitive substring match and the fields are ANDed.
type LookupFilter struct {
	Title    string
	Author   string
	Category string
	Limit    int
}

// Empty reports whether no filter field is set.
func (f LookupFilter) Empty() bool {
	return f.Title == "" && f.Author == "" && f.Category == ""
}

// CategoryCount is the number of books tagged with a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// FavoriteCount is a book and how many users favorited it.
type FavoriteCount struct {
	Book  domain.Book `json:"book"`
	Count int         `json:"count"`
}

// SearchIndexer keeps a secondary search index in step with catalog writes.
type SearchIndexer interface {
	IndexBook(book *domain.Book) error
	DeleteBook(id string) error
}

// NoopSearchIndexer ignores every call. Stores start with it until an index
// is wired in.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBook(*domain.Book) error { return nil }
func (NoopSearchIndexer) DeleteBook(string) error      { return nil }
