package domain

import "time"

// Role is a reader's role in the library.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// MaxViewHistory is the number of views kept per user.
const MaxViewHistory = 50

// User is an account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ViewEntry is one entry of a user's view history. Book is populated when
// the history is loaded with its books resolved.
type ViewEntry struct {
	BookID   string    `json:"book_id"`
	ViewedAt time.Time `json:"viewed_at"`
	Book     *Book     `json:"book,omitempty"`
}

// Profile is a user together with the reading activity the recommender and
// the assistant need. History is most-recent-first and holds at most
// MaxViewHistory entries without duplicate books.
type Profile struct {
	User      *User
	History   []ViewEntry
	Favorites []Book
}

// SeenSet returns the IDs of every book the user has viewed or favorited.
func (p *Profile) SeenSet() map[string]struct{} {
	seen := make(map[string]struct{}, len(p.History)+len(p.Favorites))
	for _, v := range p.History {
		seen[v.BookID] = struct{}{}
	}
	for _, b := range p.Favorites {
		seen[b.ID] = struct{}{}
	}
	return seen
}

// ViewedCategories returns every category of every viewed book, repeats
// included, in history order.
func (p *Profile) ViewedCategories() []string {
	var out []string
	for _, v := range p.History {
		if v.Book != nil {
			out = append(out, v.Book.Categories...)
		}
	}
	return out
}

// RecentViews returns up to n history entries with a resolved book.
func (p *Profile) RecentViews(n int) []ViewEntry {
	out := make([]ViewEntry, 0, min(n, len(p.History)))
	for _, v := range p.History {
		if len(out) == n {
			break
		}
		if v.Book != nil {
			out = append(out, v)
		}
	}
	return out
}
