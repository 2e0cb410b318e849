package sqlitestore

import (
	"context"
	"fmt"
	"strings"

	"collab-go/app/errs"
	"collab-go/app/store"
)

const userColumns = "id, name, email, username, password_hash"

// CreateUser inserts u and assigns its ID.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		id, u.Name, u.Email, u.Username, u.PasswordHash,
	)
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "users.email") {
			return errs.Detail(errs.ErrConflict, "Email already registered")
		}
		return errs.Detail(errs.ErrConflict, "Username already taken")
	}
	if err != nil {
		return fmt.Errorf("sqlitestore: create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
