package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `u.id, u.created_at, u.updated_at, u.name, u.email, u.password_hash, u.role`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
		role      string
	)
	if err := row.Scan(&u.ID, &createdAt, &updatedAt, &u.Name, &u.Email, &u.PasswordHash, &role); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// CreateUser inserts a user. Emails are unique regardless of case.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, name, email, email_lower, password_hash, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
		u.Name,
		u.Email,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(u.Role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// GetUserByEmail returns a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email_lower = ?`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// GetProfile loads a user together with the resolved view history
// (most recent first) and favorites.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.ListViewHistory(ctx, userID, domain.MaxViewHistory)
	if err != nil {
		return nil, err
	}
	favorites, err := s.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: u, History: history, Favorites: favorites}, nil
}
