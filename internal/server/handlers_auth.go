package server

import (
	"net/http"

	"github.com/LuisLuna810/coolify-managment-back/auth"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/middleware"
)

// principal returns the authenticated caller. The guard middleware put it
// there; a miss means the route table is wired wrong.
func (s *Server) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusUnauthorized, errorBody{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"})
		return nil, false
	}
	return p, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, signed, err := s.opts.AuthSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.opts.Auth.SetSessionCookie(w, signed)
	s.writeJSON(w, http.StatusOK, loginResponse{User: u, Token: signed})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	raw, _ := s.opts.Auth.ExtractToken(r)
	s.opts.AuthSvc.Logout(r.Context(), p.UserID, raw)
	s.opts.Auth.PerformLogout(w)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	u, err := s.opts.Users.Get(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

type registerRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = model.RoleDeveloper
	}
	u, err := s.opts.AuthSvc.Register(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleRegisterDeveloper(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.opts.AuthSvc.Register(r.Context(), req.Username, req.Email, req.Password, model.RoleDeveloper)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}
