package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func TestDashboard(t *testing.T) {
	ts := setupTestServer(t)
	studentAuth, student := ts.createUser(t, "ada@example.com", domain.RoleStudent)
	adminAuth, _ := ts.createUser(t, "admin@example.com", domain.RoleAdmin)
	dune := ts.createBook(t, "Dune", "Frank Herbert", "Science Fiction", "Classics")
	ts.createBook(t, "Emma", "Jane Austen", "Classics")

	_, err := ts.services.User.AddFavorite(context.Background(), student.ID, dune.ID)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/admin/dashboard", studentAuth)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/admin/dashboard", adminAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	stats := decode[service.DashboardStats](t, resp)
	assert.Equal(t, 2, stats.TotalBooks)
	assert.Equal(t, 2, stats.TotalUsers)
	require.Len(t, stats.PopularBooks, 1)
	assert.Equal(t, dune.ID, stats.PopularBooks[0].Book.ID)
	require.NotEmpty(t, stats.BooksByCategory)
	assert.Equal(t, "Classics", stats.BooksByCategory[0].Category)
	assert.Equal(t, 2, stats.BooksByCategory[0].Count)
}

func TestReindex(t *testing.T) {
	ts := setupTestServer(t)
	adminAuth, _ := ts.createUser(t, "admin@example.com", domain.RoleAdmin)
	ts.createBook(t, "Dune", "Frank Herbert")

	resp := ts.api.Post("/api/v1/admin/reindex", adminAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, decode[ReindexResponse](t, resp).Indexed)

	count, err := ts.index.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
