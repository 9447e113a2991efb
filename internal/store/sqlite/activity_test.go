package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/id"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func historyIDs(t *testing.T, s *Store, userID string) []string {
	t.Helper()
	h, err := s.ListViewHistory(context.Background(), userID, 0)
	require.NoError(t, err)
	ids := make([]string, len(h))
	for i, e := range h {
		ids[i] = e.BookID
		require.NotNil(t, e.Book)
	}
	return ids
}

func TestRecordView_MovesToFront(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	a := makeBook(t, s, 1, "A")
	b := makeBook(t, s, 2, "B")
	c := makeBook(t, s, 3, "C")

	for _, bk := range []*domain.Book{a, b, c} {
		require.NoError(t, s.RecordView(ctx, u.ID, bk.ID, time.Now()))
	}
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, historyIDs(t, s, u.ID))

	require.NoError(t, s.RecordView(ctx, u.ID, a.ID, time.Now()))
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, historyIDs(t, s, u.ID))
}

func TestRecordView_CapsAtFifty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")

	var books []*domain.Book
	for i := range domain.MaxViewHistory + 1 {
		b := makeBook(t, s, i, "Book")
		books = append(books, b)
		require.NoError(t, s.RecordView(ctx, u.ID, b.ID, baseTime))
	}

	ids := historyIDs(t, s, u.ID)
	require.Len(t, ids, domain.MaxViewHistory)
	assert.Equal(t, books[len(books)-1].ID, ids[0])
	assert.NotContains(t, ids, books[0].ID, "oldest view should be dropped")

	// Re-viewing keeps the length unchanged.
	require.NoError(t, s.RecordView(ctx, u.ID, books[10].ID, baseTime))
	ids = historyIDs(t, s, u.ID)
	assert.Len(t, ids, domain.MaxViewHistory)
	assert.Equal(t, books[10].ID, ids[0])
}

func TestRecordView_UnknownBook(t *testing.T) {
	s := newTestStore(t)
	u := makeUser(t, s, "a@example.com")
	err := s.RecordView(context.Background(), u.ID, "book-missing", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	a := makeBook(t, s, 1, "A")
	b := makeBook(t, s, 2, "B")

	require.NoError(t, s.AddFavorite(ctx, u.ID, b.ID, baseTime))
	require.NoError(t, s.AddFavorite(ctx, u.ID, a.ID, baseTime.Add(time.Second)))
	assert.ErrorIs(t, s.AddFavorite(ctx, u.ID, a.ID, baseTime), store.ErrAlreadyExists)
	assert.ErrorIs(t, s.AddFavorite(ctx, u.ID, "book-missing", baseTime), store.ErrNotFound)

	favs, err := s.ListFavorites(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, domain.BookIDs(favs))

	require.NoError(t, s.RemoveFavorite(ctx, u.ID, b.ID))
	assert.ErrorIs(t, s.RemoveFavorite(ctx, u.ID, b.ID), store.ErrNotFound)
}

func TestFavorites_SubSecondOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	a := makeBook(t, s, 1, "A")
	b := makeBook(t, s, 2, "B")

	require.NoError(t, s.AddFavorite(ctx, u.ID, a.ID, baseTime.Add(123*time.Millisecond)))
	require.NoError(t, s.AddFavorite(ctx, u.ID, b.ID, baseTime.Add(100*time.Millisecond)))

	favs, err := s.ListFavorites(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, domain.BookIDs(favs))
}

func TestActivity_MissingUserOrBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	b := makeBook(t, s, 1, "A")

	err := s.AddFavorite(ctx, "user-gone", b.ID, baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "user not found")

	err = s.RecordView(ctx, "user-gone", b.ID, baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "user not found")

	err = s.AddFavorite(ctx, u.ID, "book-gone", baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "book not found")

	err = s.RecordView(ctx, u.ID, "book-gone", baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "book not found")
}

func TestGetProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	a := makeBook(t, s, 1, "A", "Adventure")
	b := makeBook(t, s, 2, "B")
	require.NoError(t, s.RecordView(ctx, u.ID, a.ID, baseTime))
	require.NoError(t, s.AddFavorite(ctx, u.ID, b.ID, baseTime))

	p, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, p.User.Email)
	require.Len(t, p.History, 1)
	assert.Equal(t, []string{"Adventure"}, p.History[0].Book.Categories)
	assert.Len(t, p.Favorites, 1)

	_, err = s.GetProfile(ctx, "user-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteBook_CascadesToActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@example.com")
	a := makeBook(t, s, 1, "A")
	require.NoError(t, s.RecordView(ctx, u.ID, a.ID, baseTime))
	require.NoError(t, s.AddFavorite(ctx, u.ID, a.ID, baseTime))

	require.NoError(t, s.DeleteBook(ctx, a.ID))

	assert.Empty(t, historyIDs(t, s, u.ID))
	favs, err := s.ListFavorites(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestTopFavorited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u1 := makeUser(t, s, "a@example.com")
	u2 := makeUser(t, s, "b@example.com")
	a := makeBook(t, s, 1, "A")
	b := makeBook(t, s, 2, "B")
	require.NoError(t, s.AddFavorite(ctx, u1.ID, a.ID, baseTime))
	require.NoError(t, s.AddFavorite(ctx, u1.ID, b.ID, baseTime))
	require.NoError(t, s.AddFavorite(ctx, u2.ID, b.ID, baseTime))

	top, err := s.TopFavorited(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].Book.ID)
	assert.Equal(t, 2, top[0].Count)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "Reader@Example.com")

	got, err := s.GetUserByEmail(ctx, "reader@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleStudent, got.Role)

	dup := *u
	dup.ID = id.MustGenerate(id.PrefixUser)
	dup.Email = "READER@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), store.ErrAlreadyExists)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReviews_RatingRecomputed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u1 := makeUser(t, s, "a@example.com")
	u2 := makeUser(t, s, "b@example.com")
	b := makeBook(t, s, 1, "A")

	r1 := &domain.Review{ID: id.MustGenerate(id.PrefixReview), BookID: b.ID, UserID: u1.ID, Rating: 5, CreatedAt: baseTime}
	r2 := &domain.Review{ID: id.MustGenerate(id.PrefixReview), BookID: b.ID, UserID: u2.ID, Rating: 2, Comment: "meh", CreatedAt: baseTime.Add(time.Minute)}
	require.NoError(t, s.CreateReview(ctx, r1))
	require.NoError(t, s.CreateReview(ctx, r2))

	again := *r1
	again.ID = id.MustGenerate(id.PrefixReview)
	assert.ErrorIs(t, s.CreateReview(ctx, &again), store.ErrAlreadyExists)

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Rating, 0.0001)
	assert.Equal(t, 2, got.NumReviews)

	reviews, err := s.ListReviews(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, u1.Name, reviews[0].UserName)

	require.NoError(t, s.DeleteReview(ctx, r1.ID))
	require.NoError(t, s.DeleteReview(ctx, r2.ID))
	assert.ErrorIs(t, s.DeleteReview(ctx, r2.ID), store.ErrNotFound)

	got, err = s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.NumReviews)
}
