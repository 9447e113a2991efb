package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testBooks() []domain.Book {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Book{
		{ID: "book-1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Categories: []string{"Fantasy", "Adventure"}, Available: true, CreatedAt: now},
		{ID: "book-2", Title: "Dune", Author: "Frank Herbert", Categories: []string{"Science Fiction"}, Description: "<p>A desert planet and its <b>spice</b>.</p>", Available: true, CreatedAt: now.Add(time.Hour)},
		{ID: "book-3", Title: "Treasure Island", Author: "Robert Louis Stevenson", Categories: []string{"Adventure"}, Available: false, CreatedAt: now.Add(2 * time.Hour)},
	}
}

func TestOpen_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBooks(testBooks()))
	require.NoError(t, index.Close())

	index, err = Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestIndexAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	books := testBooks()

	require.NoError(t, index.IndexBook(&books[0]))
	require.NoError(t, index.IndexBook(&books[0]))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "reindexing replaces the document")

	require.NoError(t, index.DeleteBook(books[0].ID))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearch(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexBooks(testBooks()))
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
		want   []string
	}{
		{"title", Params{Query: "hobbit"}, []string{"book-1"}},
		{"author", Params{Query: "herbert"}, []string{"book-2"}},
		{"description text from html", Params{Query: "spice"}, []string{"book-2"}},
		{"category filter", Params{Category: "adventure"}, nil},
		{"category filter available only", Params{Category: "Adventure", AvailableOnly: true}, []string{"book-1"}},
		{"no match", Params{Query: "zzzzzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := index.Search(ctx, tt.params)
			require.NoError(t, err)
			if tt.want == nil {
				assert.ElementsMatch(t, []string{"book-1", "book-3"}, res.IDs())
				return
			}
			assert.Equal(t, tt.want, res.IDs())
		})
	}
}

func TestSearch_FuzzyTitle(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexBooks(testBooks()))

	res, err := index.Search(context.Background(), Params{Query: "dunr"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "book-2", res.Hits[0].ID)
	assert.Equal(t, "Dune", res.Hits[0].Title)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	books := testBooks()
	require.NoError(t, index.IndexBooks(books))

	require.NoError(t, index.Rebuild(books[:1]))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
