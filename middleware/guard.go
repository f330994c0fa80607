// Package middleware provides the per-request guard pipeline: rate
// limiting, token validation with automatic session teardown, role checks,
// and access logging, composed as ordered http.Handler wrappers. Each step
// can short-circuit with a terminal decision; ordering is explicit at the
// route table, not implicit in a framework.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/LuisLuna810/coolify-managment-back/auth"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

// Guard authenticates the request through svc and, when roles are given,
// requires the resolved principal's role to be in the allow-set. With no
// roles, authentication alone suffices.
//
// Authentication failures answer 401 and clear the session cookie (svc owns
// that side effect). A role mismatch answers 403 without touching the
// cookie: the caller is a valid user who simply lacks permission here.
// Neither response carries internal failure detail.
func Guard(svc *auth.Service, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := svc.ValidateRequest(w, r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"statusCode": http.StatusUnauthorized,
					"message":    "Unauthorized",
				})
				return
			}

			if len(roles) > 0 && !roleAllowed(roles, principal.Role) {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"statusCode": http.StatusForbidden,
					"message":    "Forbidden",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func roleAllowed(allowed []model.Role, role model.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
