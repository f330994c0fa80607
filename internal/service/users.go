package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
)

// UserUpdate carries the mutable fields of an account. Nil fields are left
// unchanged.
type UserUpdate struct {
	Username *string     `json:"username"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
	IsActive *bool       `json:"isActive"`
}

// UsersService manages operator accounts with a read-through cache.
type UsersService struct {
	repo     UserRepository
	sessions *sessioncache.Cache
	tokens   TokenInvalidator
	log      *zap.Logger
}

// NewUsersService constructs the user management service.
func NewUsersService(repo UserRepository, sessions *sessioncache.Cache, tokens TokenInvalidator, log *zap.Logger) *UsersService {
	return &UsersService{repo: repo, sessions: sessions, tokens: tokens, log: log}
}

// List returns every account.
func (s *UsersService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.FindAll(ctx)
}

// Get returns one account, serving repeated lookups from the cache.
func (s *UsersService) Get(ctx context.Context, id string) (*model.User, error) {
	if u, err := s.sessions.UserByID(ctx, id); err == nil && u != nil {
		return u, nil
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetUser(ctx, u); err != nil {
		s.log.Warn("user cache not primed", zap.String("user", id), zap.Error(err))
	}
	return u, nil
}

// GetByEmail returns one account by email, cache first.
func (s *UsersService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, err := s.sessions.UserByEmail(ctx, email); err == nil && u != nil {
		return u, nil
	}
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetUser(ctx, u); err != nil {
		s.log.Warn("user cache not primed", zap.String("user", u.ID), zap.Error(err))
	}
	return u, nil
}

// Update applies the non-nil fields of upd to the account and invalidates
// every cached shape of it before returning. Deactivating an account also
// drops its session record so the next request logs it out.
func (s *UsersService) Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevEmail := u.Email

	if upd.Username != nil {
		u.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Password != nil {
		if len(*upd.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", errs.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, *upd.Role)
		}
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if u.Username == "" || u.Email == "" {
		return nil, fmt.Errorf("%w: username and email must not be empty", errs.ErrValidation)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	if err := s.sessions.InvalidateUser(ctx, id, prevEmail); err != nil {
		s.log.Warn("user cache not invalidated", zap.String("user", id), zap.Error(err))
	}
	if prevEmail != u.Email {
		if err := s.sessions.InvalidateUser(ctx, id, u.Email); err != nil {
			s.log.Warn("user cache not invalidated", zap.String("user", id), zap.Error(err))
		}
	}
	if upd.IsActive != nil && !u.IsActive {
		s.dropSession(ctx, id)
	}
	return u, nil
}

// dropSession revokes the user's cached validation outcome and removes the
// session record, so a deactivated or deleted account stops passing
// validation immediately instead of riding out the positive cache TTL.
func (s *UsersService) dropSession(ctx context.Context, id string) {
	if rec, err := s.sessions.Session(ctx, id); err == nil && rec != nil && rec.Token != "" {
		if err := s.tokens.InvalidateToken(ctx, rec.Token); err != nil {
			s.log.Warn("token not invalidated", zap.String("user", id), zap.Error(err))
		}
	}
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		s.log.Warn("session record not deleted", zap.String("user", id), zap.Error(err))
	}
}

// Delete removes the account and every cached trace of it.
func (s *UsersService) Delete(ctx context.Context, id string) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.InvalidateUser(ctx, id, u.Email); err != nil {
		s.log.Warn("user cache not invalidated", zap.String("user", id), zap.Error(err))
	}
	s.dropSession(ctx, id)
	return nil
}
