// Package auth implements the token validation pipeline: extracting a
// bearer token from a request, verifying it against the shared secret,
// re-confirming the principal still exists and is active, and caching both
// positive and negative outcomes in the shared key-value store.
//
// Validation failures and the logout side effect (clearing the session
// cookie) are coupled in ValidateRequest so a client never keeps a rejected
// cookie across requests.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/kvstore"
	"github.com/LuisLuna810/coolify-managment-back/token"
)

const (
	positiveKeyPrefix = "auth:valid:"
	negativeKeyPrefix = "auth:invalid:"

	defaultCookieName   = "token"
	defaultCookieMaxAge = 30 * 24 * time.Hour
	defaultPositiveTTL  = 5 * time.Minute
	defaultNegativeTTL  = 30 * time.Second
)

// Principal is the authenticated identity resolved for the current request.
// It is rebuilt per request from verified claims plus a freshness check and
// is never the system of record.
type Principal struct {
	UserID   string     `json:"userId"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	Username string     `json:"username"`
}

// Result is the outcome of a single token validation. Err carries the
// taxonomy sentinel when Valid is false.
type Result struct {
	Valid     bool
	Principal *Principal
	Err       error
}

// UserProvider is the collaborator contract against the user store.
// Implementations report an absent user either as (nil, nil) or with an
// error matching errs.ErrNotFound.
type UserProvider interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Config tunes cookie attributes and outcome cache lifetimes. Zero values
// fall back to the defaults above.
type Config struct {
	CookieName    string
	CookieMaxAge  time.Duration
	SecureCookies bool
	PositiveTTL   time.Duration
	NegativeTTL   time.Duration
}

// Service validates tokens and owns the session cookie lifecycle.
type Service struct {
	codec  *token.Codec
	store  *kvstore.Store
	users  UserProvider
	config Config
}

// NewService wires the codec, the outcome cache, and the user store.
func NewService(codec *token.Codec, store *kvstore.Store, users UserProvider, cfg Config) *Service {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = defaultCookieMaxAge
	}
	if cfg.PositiveTTL <= 0 {
		cfg.PositiveTTL = defaultPositiveTTL
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = defaultNegativeTTL
	}
	return &Service{codec: codec, store: store, users: users, config: cfg}
}

// ExtractToken returns the bearer token from the session cookie, falling
// back to the Authorization header. The cookie wins when both are present.
func (s *Service) ExtractToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(s.config.CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	const bearer = "Bearer "
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearer) && len(header) > len(bearer) {
		return header[len(bearer):], true
	}

	return "", false
}

// cachedResult is the JSON shape stored in the outcome caches.
type cachedResult struct {
	Valid     bool       `json:"valid"`
	Principal *Principal `json:"principal,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ValidateToken runs the multi-step decision protocol of the gateway:
// outcome cache, signature and expiry verification, then a freshness check
// against the user store. Outcomes are cached under a digest of the token:
// positives for minutes, negatives for seconds, so a revoked or expired
// token is re-verified once the short negative TTL elapses.
//
// Cache failures are recovered locally: the pipeline falls through to the
// authoritative checks instead of failing the request.
func (s *Service) ValidateToken(ctx context.Context, raw string) Result {
	if raw == "" {
		return Result{Err: ErrMissingToken}
	}

	digest := tokenDigest(raw)

	var cached cachedResult
	if err := s.store.GetJSON(ctx, positiveKeyPrefix+digest, &cached); err == nil && cached.Valid && cached.Principal != nil {
		return Result{Valid: true, Principal: cached.Principal}
	}
	if err := s.store.GetJSON(ctx, negativeKeyPrefix+digest, &cached); err == nil && !cached.Valid {
		return Result{Err: errorFromReason(cached.Reason)}
	}

	claims, err := s.codec.Verify(raw)
	if err != nil {
		return s.cacheNegative(ctx, digest, mapTokenError(err))
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	switch {
	case err != nil && errors.Is(err, errs.ErrNotFound):
		return s.cacheNegative(ctx, digest, ErrUserNotFound)
	case err != nil:
		// The user store itself failed; don't cache a transient outcome.
		return Result{Err: err}
	case user == nil:
		return s.cacheNegative(ctx, digest, ErrUserNotFound)
	case !user.IsActive:
		return s.cacheNegative(ctx, digest, ErrUserInactive)
	}

	principal := &Principal{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     model.Role(claims.Role),
		Username: claims.Username,
	}

	// Best effort: a write failure only costs a re-verification later.
	_ = s.store.SetJSON(ctx, positiveKeyPrefix+digest, cachedResult{
		Valid:     true,
		Principal: principal,
	}, s.config.PositiveTTL)

	return Result{Valid: true, Principal: principal}
}

// ValidateRequest extracts and validates the request's token. Any invalid
// outcome, including a missing token, clears the session cookie before the
// error is returned, so rejection and client-side teardown happen as one step.
func (s *Service) ValidateRequest(w http.ResponseWriter, r *http.Request) (*Principal, error) {
	raw, ok := s.ExtractToken(r)
	if !ok {
		s.PerformLogout(w)
		return nil, ErrMissingToken
	}

	result := s.ValidateToken(r.Context(), raw)
	if !result.Valid {
		s.PerformLogout(w)
		return nil, result.Err
	}

	return result.Principal, nil
}

// SetSessionCookie attaches a freshly signed token to the response.
func (s *Service) SetSessionCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(s.config.CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: s.sameSite(),
	})
}

// PerformLogout expires the session cookie using the same attributes it was
// set with, so clearing succeeds regardless of request origin. Calling it
// without an existing session is a no-op for the client and never fails.
func (s *Service) PerformLogout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: s.sameSite(),
	})
}

// InvalidateToken drops any cached outcome for the given token so the next
// validation hits the authoritative path. Used on logout and on user
// mutations that must not ride out the positive TTL.
func (s *Service) InvalidateToken(ctx context.Context, raw string) error {
	digest := tokenDigest(raw)
	_, err := s.store.Del(ctx, positiveKeyPrefix+digest, negativeKeyPrefix+digest)
	return err
}

func (s *Service) cacheNegative(ctx context.Context, digest string, cause error) Result {
	_ = s.store.SetJSON(ctx, negativeKeyPrefix+digest, cachedResult{
		Reason: reasonOf(cause),
	}, s.config.NegativeTTL)
	return Result{Err: cause}
}

// SameSite=None requires Secure; cross-origin deploys run behind TLS.
func (s *Service) sameSite() http.SameSite {
	if s.config.SecureCookies {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, token.ErrTokenMalformed):
		return ErrMalformedPayload
	default:
		return ErrInvalidToken
	}
}

// Raw tokens never become cache keys; a digest keeps credentials out of
// KEYS scans and Redis diagnostics.
func tokenDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
