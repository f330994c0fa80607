package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
	"github.com/LuisLuna810/coolify-managment-back/token"
)

// TokenInvalidator drops the cached validation outcome of a raw token.
type TokenInvalidator interface {
	InvalidateToken(ctx context.Context, raw string) error
}

// AuthService handles login, registration, and logout.
type AuthService struct {
	users    UserRepository
	codec    *token.Codec
	sessions *sessioncache.Cache
	tokens   TokenInvalidator
	log      *zap.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users UserRepository, codec *token.Codec, sessions *sessioncache.Cache, tokens TokenInvalidator, log *zap.Logger) *AuthService {
	return &AuthService{users: users, codec: codec, sessions: sessions, tokens: tokens, log: log}
}

// Login authenticates by email and password and returns the user together
// with a freshly signed token. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, "", errs.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", errs.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, "", errs.ErrForbidden
	}

	signed, err := s.codec.Sign(u.ID, u.Email, string(u.Role), u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	rec := sessioncache.Record{
		UserID:    u.ID,
		Token:     signed,
		LoginTime: time.Now().UTC(),
		Email:     u.Email,
		Role:      u.Role,
		Username:  u.Username,
	}
	if err := s.sessions.StoreSession(ctx, rec); err != nil {
		s.log.Warn("session record not stored", zap.String("user", u.ID), zap.Error(err))
	}
	if err := s.sessions.SetUser(ctx, u); err != nil {
		s.log.Warn("user cache not primed", zap.String("user", u.ID), zap.Error(err))
	}
	return u, signed, nil
}

// Register creates a new account with the given role.
func (s *AuthService) Register(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: username, email and a password of at least 6 characters are required", errs.ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout drops the user's session record and the cached outcome of the
// presented token so the next request revalidates from scratch.
func (s *AuthService) Logout(ctx context.Context, userID, rawToken string) {
	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		s.log.Warn("session record not deleted", zap.String("user", userID), zap.Error(err))
	}
	if rawToken != "" {
		if err := s.tokens.InvalidateToken(ctx, rawToken); err != nil {
			s.log.Warn("token cache not invalidated", zap.String("user", userID), zap.Error(err))
		}
	}
}

// EnsureAdmin creates the bootstrap admin account on first start. An
// existing account with the same email is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if email == "" || password == "" {
		s.log.Info("admin bootstrap skipped, credentials not configured")
		return nil
	}
	if username == "" {
		username = "admin"
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if _, err := s.Register(ctx, username, email, password, model.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Info("admin account created", zap.String("email", email))
	return nil
}
