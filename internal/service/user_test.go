package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func TestUserService_Favorites(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u := env.user(t, "fan@example.com")
	a := env.book(t, "Dune", "Frank Herbert")
	b := env.book(t, "Emma", "Jane Austen")

	favs, err := env.users.AddFavorite(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, domain.BookIDs(favs))

	favs, err = env.users.AddFavorite(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, domain.BookIDs(favs))

	_, err = env.users.AddFavorite(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	favs, err = env.users.RemoveFavorite(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, domain.BookIDs(favs))

	_, err = env.users.RemoveFavorite(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserService_Profile(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u := env.user(t, "reader@example.com")
	a := env.book(t, "Dune", "Frank Herbert", "Science Fiction")

	require.NoError(t, env.users.RecordView(ctx, u.ID, a.ID))
	_, err := env.users.AddFavorite(ctx, u.ID, a.ID)
	require.NoError(t, err)

	p, err := env.users.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.User.ID)
	require.Len(t, p.History, 1)
	assert.Equal(t, []string{"Science Fiction"}, p.ViewedCategories())
	assert.Len(t, p.Favorites, 1)
}

func TestReviewService(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u1 := env.user(t, "one@example.com")
	u2 := env.user(t, "two@example.com")
	b := env.book(t, "Dune", "Frank Herbert")

	r1, err := env.reviews.CreateReview(ctx, u1.ID, b.ID, ReviewInput{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, "great", r1.Comment)
	assert.Equal(t, "Reader", r1.UserName)

	_, err = env.reviews.CreateReview(ctx, u2.ID, b.ID, ReviewInput{Rating: 2})
	require.NoError(t, err)

	_, err = env.reviews.CreateReview(ctx, u1.ID, b.ID, ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = env.reviews.CreateReview(ctx, u1.ID, b.ID, ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.reviews.CreateReview(ctx, u1.ID, "book-missing", ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := env.store.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Rating, 0.001)
	assert.Equal(t, 2, got.NumReviews)

	list, err := env.reviews.ListReviews(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = env.reviews.ListReviews(ctx, "book-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, env.reviews.DeleteReview(ctx, r1.ID))
	got, err = env.store.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.Rating, 0.001)
	assert.Equal(t, 1, got.NumReviews)
}

func TestDashboardService_Stats(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	u1 := env.user(t, "one@example.com")
	u2 := env.user(t, "two@example.com")
	a := env.book(t, "Dune", "Frank Herbert", "Science Fiction", "Classic")
	b := env.book(t, "Emma", "Jane Austen", "Classic")

	for _, u := range []*domain.User{u1, u2} {
		_, err := env.users.AddFavorite(ctx, u.ID, b.ID)
		require.NoError(t, err)
	}
	_, err := env.users.AddFavorite(ctx, u1.ID, a.ID)
	require.NoError(t, err)

	stats, err := env.dashboard.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalBooks)
	assert.Equal(t, 2, stats.TotalUsers)
	require.Len(t, stats.PopularBooks, 2)
	assert.Equal(t, b.ID, stats.PopularBooks[0].Book.ID)
	assert.Equal(t, 2, stats.PopularBooks[0].Count)
	require.Len(t, stats.BooksByCategory, 2)
	assert.Equal(t, store.CategoryCount{Category: "Classic", Count: 2}, stats.BooksByCategory[0])
}

func TestDashboardService_Stats_CanceledContext(t *testing.T) {
	env := setupTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.dashboard.Stats(ctx)
	assert.Error(t, err)
}
