package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"collab-go/app/config"
	"collab-go/app/errs"
	"collab-go/app/models"
	"collab-go/app/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login and token verification.
type UserService struct {
	users  store.UserStore
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewUserService creates a new instance of UserService.
func NewUserService(users store.UserStore, cfg config.AuthConfig) *UserService {
	return &UserService{
		users:  users,
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

var errBadCredentials = errs.Detail(errs.ErrUnauthorized, "Could not validate credentials")

// Register stores a new account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &store.User{
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("User registered", "user", u.Username)
	return toUser(u), nil
}

// Login checks credentials and issues a signed access token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	u, err := s.users.UserByEmail(ctx, req.Email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Detail(errs.ErrUnauthorized, "User Not Found")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errs.Detail(errs.ErrUnauthorized, "Invalid credentials")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.Email,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.TokenResponse{AccessToken: signed, TokenType: "bearer"}, nil
}

// Authenticate verifies a bearer token and loads the user it names.
func (s *UserService) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" {
		slog.Debug("Rejected token", "error", err)
		return nil, errBadCredentials
	}
	u, err := s.users.UserByEmail(ctx, claims.Subject)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	return toUser(u), nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for i := range users {
		out = append(out, *toUser(&users[i]))
	}
	return out, nil
}
