// Package domain contains the library's core entities: books, readers and
// their reading activity, reviews, and assistant conversation turns.
package domain

import (
	"strings"
	"time"
)

// Book is a catalog entry.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear int       `json:"published_year,omitempty"`
	Categories    []string  `json:"categories"`
	Available     bool      `json:"available"`
	ImageURL      string    `json:"image_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	Rating        float64   `json:"rating"`
	NumReviews    int       `json:"num_reviews"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeCategories trims every category and drops empty entries. Order
// and repeated tags are preserved.
func NormalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// HasCategory reports whether b is tagged with category, ignoring case.
func (b *Book) HasCategory(category string) bool {
	for _, c := range b.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// BookIDs returns the IDs of books in order.
func BookIDs(books []Book) []string {
	ids := make([]string, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	return ids
}
