package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
)

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.opts.Log.Error("response not encoded", zap.Error(err))
	}
}

// writeError maps service errors onto HTTP statuses. Unknown errors become
// an opaque 500; the detail goes to the log, not the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var msg string
	switch {
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, errs.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		status, msg = http.StatusConflict, "Already exists"
	default:
		status, msg = http.StatusInternalServerError, "Internal server error"
		s.opts.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{StatusCode: status, Message: msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{StatusCode: http.StatusBadRequest, Message: "Malformed JSON body"})
		return false
	}
	return true
}
