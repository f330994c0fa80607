package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LuisLuna810/coolify-managment-back/auth"
	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
)

type controlFn func(r *http.Request, p *auth.Principal, projectID string) error

func (s *Server) control(w http.ResponseWriter, r *http.Request, action string, call controlFn) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectId")
	if err := call(r, p, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Action executed",
		"action":    action,
		"projectId": projectID,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, "start", func(r *http.Request, p *auth.Principal, projectID string) error {
		return s.opts.Actions.Start(r.Context(), p.UserID, p.Role, projectID)
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, "stop", func(r *http.Request, p *auth.Principal, projectID string) error {
		return s.opts.Actions.Stop(r.Context(), p.UserID, p.Role, projectID)
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, "restart", func(r *http.Request, p *auth.Principal, projectID string) error {
		return s.opts.Actions.Restart(r.Context(), p.UserID, p.Role, projectID)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	status, err := s.opts.Actions.Status(r.Context(), p.UserID, p.Role, chi.URLParam(r, "projectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleEnvs(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	envs, err := s.opts.Actions.Envs(r.Context(), p.UserID, p.Role, chi.URLParam(r, "projectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if envs == nil {
		envs = []coolify.Env{}
	}
	s.writeJSON(w, http.StatusOK, envs)
}

type updateEnvRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleUpdateEnv(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	var req updateEnvRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.opts.Actions.UpdateEnv(r.Context(), p.UserID, p.Role, chi.URLParam(r, "projectId"), req.Key, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Environment updated", "key": req.Key})
}

func (s *Server) handleActionLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	lines := 0
	if raw := r.URL.Query().Get("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("%w: lines must be a non-negative integer", errs.ErrValidation))
			return
		}
		lines = n
	}
	out, err := s.opts.Actions.Logs(r.Context(), p.UserID, p.Role, chi.URLParam(r, "projectId"), lines)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"logs": out})
}
