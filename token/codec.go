// Package token signs and verifies the gateway's bearer tokens: HS256 JWTs
// carrying the principal's id, email, role, and username. The codec is a
// pure function of its configuration and holds no per-request state.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when the token's expiry is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures and undecodable tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMalformed is returned when a structurally valid token is
	// missing required claims.
	ErrTokenMalformed = errors.New("invalid token payload")
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the shared signing secret and the token lifetime.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Codec signs and verifies tokens against the shared secret.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: empty signing secret")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token: non-positive TTL")
	}
	return &Codec{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.config.TTL
}

// Sign issues a token for the given principal attributes.
func (c *Codec) Sign(userID, email, role, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:    email,
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry, then the presence of the required
// claims (subject, email, role). It distinguishes expiry, signature, and
// payload failures so callers can cache and report them separately.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.config.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
