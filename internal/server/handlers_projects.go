package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.opts.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleAvailableProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.opts.Projects.Available(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleMyProjects(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	projects, err := s.opts.Projects.ByUser(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleAssignedProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.opts.Projects.ByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.opts.Projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleSyncProjects(w http.ResponseWriter, r *http.Request) {
	n, err := s.opts.Projects.Sync(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}
