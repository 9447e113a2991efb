package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/auth"
	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

type testEnv struct {
	store     *sqlite.Store
	index     *search.Index
	auth      *AuthService
	books     *BookService
	users     *UserService
	reviews   *ReviewService
	dashboard *DashboardService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTest wires every service against a temp-dir store and index.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	log := discardLogger()

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.Open(search.Options{DataPath: dir, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	s.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:     s,
		index:     index,
		auth:      NewAuthService(s, tokens, log),
		books:     NewBookService(s, index, log),
		users:     NewUserService(s, log),
		reviews:   NewReviewService(s, log),
		dashboard: NewDashboardService(s, log),
	}
}

func (e *testEnv) book(t *testing.T, title, author string, categories ...string) *domain.Book {
	t.Helper()
	b, err := e.books.CreateBook(context.Background(), BookInput{
		Title:      title,
		Author:     author,
		Categories: categories,
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.CreateUser(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}
