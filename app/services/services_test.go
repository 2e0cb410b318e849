package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"collab-go/app/config"
	"collab-go/app/models"
	"collab-go/app/store/sqlitestore"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 15, 500, time.UTC)

func clock() time.Time { return fixedNow }

// newTestStore creates a SQLite store in a temp directory.
func newTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.New(context.Background(), filepath.Join(t.TempDir(), "collab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newUserService(s *sqlitestore.Store) *UserService {
	svc := NewUserService(s, config.AuthConfig{Secret: "test-secret", Issuer: "collab-test", TokenTTL: 30 * time.Minute})
	svc.cost = bcrypt.MinCost
	svc.now = clock
	return svc
}

func register(t *testing.T, svc *UserService, username string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     username + " Example",
		Email:    username + "@example.com",
		Username: username,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}
