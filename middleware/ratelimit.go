package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LuisLuna810/coolify-managment-back/ratelimit"
)

// RateLimit enforces the route's quota before any other processing. The
// client identity is the source IP plus the authenticated user id when a
// guard already ran earlier in the chain; on pre-auth routes such as login
// it degrades to ip:anonymous.
//
// Every response on a limited route carries the X-RateLimit-* headers.
// Rejections answer 429 with {statusCode, message, retryAfter}. If quota
// state cannot be determined the limiter fails closed with a 503.
func RateLimit(limiter *ratelimit.Limiter, opts ratelimit.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if principal, ok := PrincipalFromContext(r.Context()); ok {
				userID = principal.UserID
			}
			clientKey := ratelimit.ClientKey(clientIP(r), userID)

			result, err := limiter.Allow(r.Context(), clientKey, opts)
			if err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"statusCode": http.StatusServiceUnavailable,
					"message":    "Service unavailable",
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", result.Reset.UTC().Format(time.RFC3339))

			if !result.Allowed {
				retryAfter := int(result.RetryAfter / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				message := opts.Message
				if message == "" {
					message = "Too many requests"
				}
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"statusCode": http.StatusTooManyRequests,
					"message":    message,
					"retryAfter": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating address, trusting the proxy headers the
// deployment sits behind before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
