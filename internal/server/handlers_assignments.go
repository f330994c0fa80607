package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

type assignRequest struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		s.writeError(w, r, fmt.Errorf("%w: userId and projectId are required", errs.ErrValidation))
		return
	}
	up, err := s.opts.Assignments.Assign(r.Context(), req.UserID, req.ProjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, up)
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Assignments.Unassign(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Assignment removed"})
}

func (s *Server) handleUnassignPair(w http.ResponseWriter, r *http.Request) {
	err := s.opts.Assignments.UnassignUserProject(r.Context(),
		chi.URLParam(r, "userId"), chi.URLParam(r, "projectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Assignment removed"})
}

func (s *Server) handleAssignmentsByUser(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.opts.Assignments.ByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []model.UserProject{}
	}
	s.writeJSON(w, http.StatusOK, assignments)
}

func (s *Server) handleAssignmentsByProject(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.opts.Assignments.ByProject(r.Context(), chi.URLParam(r, "projectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []model.UserProject{}
	}
	s.writeJSON(w, http.StatusOK, assignments)
}
