package auth

import "errors"

var (
	// ErrMissingToken is returned when neither the session cookie nor the
	// Authorization header carries a token.
	ErrMissingToken = errors.New("no token provided")
	// ErrInvalidToken is returned for bad signatures and undecodable tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's expiry is in the past.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedPayload is returned when a verified token lacks required claims.
	ErrMalformedPayload = errors.New("invalid token payload")
	// ErrUserNotFound is returned when the token's subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when the token's subject is deactivated.
	ErrUserInactive = errors.New("user account is inactive")
)

// Reason strings stored in the negative outcome cache. The cached form must
// survive a JSON round trip, so failures are keyed by name and mapped back
// to their sentinel on read.
const (
	reasonInvalidToken     = "invalid_token"
	reasonExpiredToken     = "expired_token"
	reasonMalformedPayload = "malformed_payload"
	reasonUserNotFound     = "user_not_found"
	reasonUserInactive     = "user_inactive"
)

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return reasonExpiredToken
	case errors.Is(err, ErrMalformedPayload):
		return reasonMalformedPayload
	case errors.Is(err, ErrUserNotFound):
		return reasonUserNotFound
	case errors.Is(err, ErrUserInactive):
		return reasonUserInactive
	default:
		return reasonInvalidToken
	}
}

func errorFromReason(reason string) error {
	switch reason {
	case reasonExpiredToken:
		return ErrExpiredToken
	case reasonMalformedPayload:
		return ErrMalformedPayload
	case reasonUserNotFound:
		return ErrUserNotFound
	case reasonUserInactive:
		return ErrUserInactive
	default:
		return ErrInvalidToken
	}
}
