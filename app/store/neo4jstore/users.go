package neo4jstore

import (
	"context"
	"fmt"

	"collab-go/app/errs"
	"collab-go/app/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CreateUser creates a User node and assigns u.ID.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	id := newID()
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Look for an existing account first so the caller learns which field clashed
		records, err := collect(ctx, tx,
			"MATCH (u:User) WHERE u.email = $email OR u.username = $username "+
				"RETURN u.email AS email LIMIT 1",
			map[string]any{"email": u.Email, "username": u.Username},
		)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			if value(records[0], "email") == u.Email {
				return nil, errs.Detail(errs.ErrConflict, "Email already registered")
			}
			return nil, errs.Detail(errs.ErrConflict, "Username already taken")
		}

		_, err = tx.Run(ctx,
			"CREATE (u:User {id: $id, name: $name, email: $email, username: $username, password_hash: $hash})",
			map[string]any{
				"id":       id,
				"name":     u.Name,
				"email":    u.Email,
				"username": u.Username,
				"hash":     u.PasswordHash,
			},
		)
		return nil, err
	})
	if isConstraintViolation(err) {
		return errs.Detail(errs.ErrConflict, "Email or username already taken")
	}
	if err != nil {
		return fmt.Errorf("neo4jstore: create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.userWhere(ctx, "u.email = $value", email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	return s.userWhere(ctx, "u.id = $value", id)
}

func (s *Store) userWhere(ctx context.Context, cond string, v string) (*store.User, error) {
	users, err := s.users(ctx, "MATCH (u:User) WHERE "+cond+" RETURN u{.*} AS user", map[string]any{"value": v})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errs.ErrNotFound
	}
	return &users[0], nil
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.users(ctx, "MATCH (u:User) WHERE u.email IS NOT NULL RETURN u{.*} AS user ORDER BY u.username", nil)
}

func (s *Store) users(ctx context.Context, query string, params map[string]any) ([]store.User, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		users := make([]store.User, 0, len(records))
		for _, rec := range records {
			m, err := propMap(rec, "user")
			if err != nil {
				return nil, err
			}
			users = append(users, userFromMap(m))
		}
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: query users: %w", err)
	}
	return result.([]store.User), nil
}
