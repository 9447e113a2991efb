package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfile_SeenSet(t *testing.T) {
	p := Profile{
		History:   []ViewEntry{{BookID: "a"}, {BookID: "b"}},
		Favorites: []Book{{ID: "b"}, {ID: "c"}},
	}

	seen := p.SeenSet()
	assert.Len(t, seen, 3)
	for _, id := range []string{"a", "b", "c"} {
		assert.Contains(t, seen, id)
	}
}

func TestProfile_ViewedCategoriesKeepsRepeats(t *testing.T) {
	p := Profile{History: []ViewEntry{
		{BookID: "a", Book: &Book{Categories: []string{"Adventure"}}},
		{BookID: "b", Book: &Book{Categories: []string{"Adventure", "Mystery"}}},
		{BookID: "gone"},
	}}

	assert.Equal(t, []string{"Adventure", "Adventure", "Mystery"}, p.ViewedCategories())
}

func TestProfile_RecentViewsSkipsUnresolved(t *testing.T) {
	now := time.Now()
	p := Profile{History: []ViewEntry{
		{BookID: "a", ViewedAt: now, Book: &Book{ID: "a"}},
		{BookID: "deleted", ViewedAt: now},
		{BookID: "b", ViewedAt: now, Book: &Book{ID: "b"}},
		{BookID: "c", ViewedAt: now, Book: &Book{ID: "c"}},
	}}

	recent := p.RecentViews(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].BookID)
	assert.Equal(t, "b", recent[1].BookID)
}

func TestNormalizeCategories(t *testing.T) {
	assert.Equal(t, []string{"Fantasy", "Fantasy", "Classic"},
		NormalizeCategories([]string{" Fantasy", "", "Fantasy ", "  ", "Classic"}))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, Role("librarian").Valid())
}

func TestTurnIsAssistant(t *testing.T) {
	assert.True(t, Turn{Role: "ai"}.IsAssistant())
	assert.True(t, Turn{Role: TurnAssistant}.IsAssistant())
	assert.False(t, Turn{Role: TurnUser}.IsAssistant())
}

func TestBookHasCategory(t *testing.T) {
	b := &Book{Categories: []string{"Science Fiction", "Classic"}}
	assert.True(t, b.HasCategory("science fiction"))
	assert.True(t, b.HasCategory("CLASSIC"))
	assert.False(t, b.HasCategory("Science"))
}
