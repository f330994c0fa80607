package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.opts.Health.Check(r.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

// auditFilter parses the query string of GET /logs. Dates are RFC 3339.
func auditFilter(r *http.Request) (model.ActionLogFilter, error) {
	q := r.URL.Query()
	f := model.ActionLogFilter{
		UserID:    q.Get("userId"),
		ProjectID: q.Get("projectId"),
		Action:    q.Get("action"),
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		return f, fmt.Errorf("%w: limit must be a non-negative integer", errs.ErrValidation)
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		return f, fmt.Errorf("%w: offset must be a non-negative integer", errs.ErrValidation)
	}
	if raw := q.Get("startDate"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, fmt.Errorf("%w: startDate must be RFC 3339", errs.ErrValidation)
		}
		f.StartDate = &ts
	}
	if raw := q.Get("endDate"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, fmt.Errorf("%w: endDate must be RFC 3339", errs.ErrValidation)
		}
		f.EndDate = &ts
	}
	return f, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return n, nil
}

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.opts.Audit.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.ActionLog{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAuditByUser(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errs.ErrValidation))
		return
	}
	entries, err := s.opts.Audit.ByUser(r.Context(), chi.URLParam(r, "userId"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.ActionLog{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAuditByProject(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errs.ErrValidation))
		return
	}
	entries, err := s.opts.Audit.ByProject(r.Context(), chi.URLParam(r, "projectId"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.ActionLog{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.opts.Audit.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []model.ActionStat{}
	}
	s.writeJSON(w, http.StatusOK, stats)
}
