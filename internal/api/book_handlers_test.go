package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func TestListBooks_Pages(t *testing.T) {
	ts := setupTestServer(t)
	for _, title := range []string{"Dune", "Emma", "Ivanhoe"} {
		ts.createBook(t, title, "Author")
	}

	resp := ts.api.Get("/api/v1/books?limit=2")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	page := decode[store.Page[domain.Book]](t, resp)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ivanhoe", page.Items[0].Title)
	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.Total)

	resp = ts.api.Get("/api/v1/books?limit=2&cursor=" + page.NextCursor)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	next := decode[store.Page[domain.Book]](t, resp)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Dune", next.Items[0].Title)
	assert.False(t, next.HasMore)
}

func TestListBooks_Filters(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Dune", "Frank Herbert", "Science Fiction")
	ts.createBook(t, "Emma", "Jane Austen", "Romance")

	resp := ts.api.Get("/api/v1/books?q=austen")
	page := decode[store.Page[domain.Book]](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Emma", page.Items[0].Title)

	resp = ts.api.Get("/api/v1/books?category=science%20fiction")
	page = decode[store.Page[domain.Book]](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Dune", page.Items[0].Title)
}

func TestGetBook_RecordsViewForSignedInReader(t *testing.T) {
	ts := setupTestServer(t)
	authHeader, user := ts.createUser(t, "ada@example.com", domain.RoleStudent)
	book := ts.createBook(t, "Dune", "Frank Herbert")

	// Anonymous reads work and record nothing.
	resp := ts.api.Get("/api/v1/books/" + book.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Dune", decode[domain.Book](t, resp).Title)

	resp = ts.api.Get("/api/v1/books/"+book.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)

	history, err := ts.services.User.ListHistory(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, book.ID, history[0].BookID)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books/book-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

func TestBookWrites_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)
	studentAuth, _ := ts.createUser(t, "student@example.com", domain.RoleStudent)
	teacherAuth, _ := ts.createUser(t, "teacher@example.com", domain.RoleTeacher)
	adminAuth, _ := ts.createUser(t, "admin@example.com", domain.RoleAdmin)

	body := map[string]any{
		"title":      "Dune",
		"author":     "Frank Herbert",
		"categories": []string{"Science Fiction", " Classics "},
	}

	resp := ts.api.Post("/api/v1/books", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/books", studentAuth, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)

	resp = ts.api.Post("/api/v1/books", teacherAuth, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/books", adminAuth, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[domain.Book](t, resp)
	assert.Equal(t, []string{"Science Fiction", "Classics"}, created.Categories)
	assert.True(t, created.Available)

	body["title"] = "Dune Messiah"
	body["available"] = false
	resp = ts.api.Put("/api/v1/books/"+created.ID, adminAuth, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[domain.Book](t, resp)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.False(t, updated.Available)

	resp = ts.api.Delete("/api/v1/books/"+created.ID, studentAuth)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/books/"+created.ID, adminAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/books/" + created.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateBook_Validation(t *testing.T) {
	ts := setupTestServer(t)
	adminAuth, _ := ts.createUser(t, "admin@example.com", domain.RoleAdmin)

	resp := ts.api.Post("/api/v1/books", adminAuth, map[string]any{
		"title":          "   ",
		"author":         "Someone",
		"published_year": 99999,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestSearchBooks(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Dune", "Frank Herbert", "Science Fiction")
	ts.createBook(t, "Emma", "Jane Austen", "Romance")

	resp := ts.api.Get("/api/v1/books/search?q=herbert")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decode[service.SearchResult](t, resp)
	require.NotEmpty(t, result.Books)
	assert.Equal(t, "Dune", result.Books[0].Title)

	resp = ts.api.Get("/api/v1/books/search?q=zeppelin")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/books/search")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[CategoriesResponse](t, resp).Categories)

	ts.createBook(t, "Dune", "Frank Herbert", "Science Fiction", "Classics")
	ts.createBook(t, "Emma", "Jane Austen", "Classics", "Romance")

	resp = ts.api.Get("/api/v1/categories")
	assert.Equal(t, []string{"Classics", "Romance", "Science Fiction"}, decode[CategoriesResponse](t, resp).Categories)
}
