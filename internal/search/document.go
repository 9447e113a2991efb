// Package search provides full-text search over the book catalog using Bleve.
package search

import (
	"github.com/shelfwise/shelfwise-server/internal/category"
	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/textutil"
)

// Document is the indexed form of a book.
//
// Descriptions may arrive as HTML from catalog imports, so they are indexed
// as plain text.
type Document struct {
	ID            string
	Title         string
	Author        string
	Categories    []string
	CategorySlugs []string
	Description   string
	PublishedYear int
	Available     bool
	CreatedAt     int64 // Unix millis
}

// DocumentFromBook builds the index document for b.
func DocumentFromBook(b *domain.Book) *Document {
	slugs := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		if s := category.Slugify(c); s != "" {
			slugs = append(slugs, s)
		}
	}
	return &Document{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Categories:    b.Categories,
		CategorySlugs: slugs,
		Description:   textutil.Plain(b.Description),
		PublishedYear: b.PublishedYear,
		Available:     b.Available,
		CreatedAt:     b.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"available":  d.Available,
		"created_at": d.CreatedAt,
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
		m["category_slugs"] = d.CategorySlugs
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.PublishedYear > 0 {
		m["published_year"] = d.PublishedYear
	}
	return m
}
