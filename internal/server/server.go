// Package server assembles the HTTP surface of the gateway: the chi router,
// the route table, and the JSON handlers.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/auth"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/internal/service"
	"github.com/LuisLuna810/coolify-managment-back/middleware"
	"github.com/LuisLuna810/coolify-managment-back/ratelimit"
)

// Default request quotas. Login gets a tighter window because it is the
// only unauthenticated mutating endpoint.
var (
	defaultQuota = ratelimit.Options{MaxRequests: 100, Window: time.Minute}
	loginQuota   = ratelimit.Options{MaxRequests: 10, Window: time.Minute, Message: "Too many login attempts"}
)

// Options carries every dependency the router needs.
type Options struct {
	Auth        *auth.Service
	Limiter     *ratelimit.Limiter
	AuthSvc     *service.AuthService
	Users       *service.UsersService
	Projects    *service.ProjectsService
	Assignments *service.AssignmentsService
	Actions     *service.ActionsService
	Audit       *service.AuditService
	Health      *service.HealthService
	CORSOrigin  string
	Log         *zap.Logger
}

// Server is the HTTP layer. Handlers are methods on it.
type Server struct {
	opts Options
}

// New constructs the server.
func New(opts Options) *Server {
	return &Server{opts: opts}
}

// route is one row of the routing table. Nil roles means the endpoint is
// public; an empty, non-nil slice means any authenticated role.
type route struct {
	method  string
	pattern string
	roles   []model.Role
	quota   *ratelimit.Options
	handler http.HandlerFunc
}

func anyRole() []model.Role { return []model.Role{} }
func adminOnly() []model.Role {
	return []model.Role{model.RoleAdmin}
}

func (s *Server) routes() []route {
	return []route{
		{method: http.MethodGet, pattern: "/health", handler: s.handleHealth},

		{method: http.MethodPost, pattern: "/auth/login", quota: &loginQuota, handler: s.handleLogin},
		{method: http.MethodPost, pattern: "/auth/logout", roles: anyRole(), handler: s.handleLogout},
		{method: http.MethodGet, pattern: "/auth/me", roles: anyRole(), handler: s.handleMe},
		{method: http.MethodPost, pattern: "/auth/register", roles: adminOnly(), handler: s.handleRegister},
		{method: http.MethodPost, pattern: "/auth/register-developer", roles: adminOnly(), handler: s.handleRegisterDeveloper},

		{method: http.MethodGet, pattern: "/users", roles: adminOnly(), handler: s.handleListUsers},
		{method: http.MethodGet, pattern: "/users/{id}", roles: adminOnly(), handler: s.handleGetUser},
		{method: http.MethodPatch, pattern: "/users/{id}", roles: adminOnly(), handler: s.handleUpdateUser},
		{method: http.MethodDelete, pattern: "/users/{id}", roles: adminOnly(), handler: s.handleDeleteUser},

		{method: http.MethodGet, pattern: "/projects", roles: adminOnly(), handler: s.handleListProjects},
		{method: http.MethodGet, pattern: "/projects/available", roles: adminOnly(), handler: s.handleAvailableProjects},
		{method: http.MethodGet, pattern: "/projects/my", roles: anyRole(), handler: s.handleMyProjects},
		{method: http.MethodGet, pattern: "/projects/assigned/{userId}", roles: adminOnly(), handler: s.handleAssignedProjects},
		{method: http.MethodGet, pattern: "/projects/{id}", roles: adminOnly(), handler: s.handleGetProject},
		{method: http.MethodPost, pattern: "/projects/sync", roles: adminOnly(), handler: s.handleSyncProjects},

		{method: http.MethodPost, pattern: "/user-projects", roles: adminOnly(), handler: s.handleAssign},
		{method: http.MethodGet, pattern: "/user-projects/user/{userId}", roles: adminOnly(), handler: s.handleAssignmentsByUser},
		{method: http.MethodGet, pattern: "/user-projects/project/{projectId}", roles: adminOnly(), handler: s.handleAssignmentsByProject},
		{method: http.MethodDelete, pattern: "/user-projects/{id}", roles: adminOnly(), handler: s.handleUnassign},
		{method: http.MethodDelete, pattern: "/user-projects/user/{userId}/project/{projectId}", roles: adminOnly(), handler: s.handleUnassignPair},

		{method: http.MethodPost, pattern: "/actions/{projectId}/start", roles: anyRole(), handler: s.handleStart},
		{method: http.MethodPost, pattern: "/actions/{projectId}/stop", roles: anyRole(), handler: s.handleStop},
		{method: http.MethodPost, pattern: "/actions/{projectId}/restart", roles: anyRole(), handler: s.handleRestart},
		{method: http.MethodGet, pattern: "/actions/{projectId}/status", roles: anyRole(), handler: s.handleStatus},
		{method: http.MethodGet, pattern: "/actions/{projectId}/envs", roles: anyRole(), handler: s.handleEnvs},
		{method: http.MethodPatch, pattern: "/actions/{projectId}/envs", roles: anyRole(), handler: s.handleUpdateEnv},
		{method: http.MethodGet, pattern: "/actions/{projectId}/logs", roles: anyRole(), handler: s.handleActionLogs},

		{method: http.MethodGet, pattern: "/logs", roles: adminOnly(), handler: s.handleAuditList},
		{method: http.MethodGet, pattern: "/logs/stats", roles: adminOnly(), handler: s.handleAuditStats},
		{method: http.MethodGet, pattern: "/logs/user/{userId}", roles: adminOnly(), handler: s.handleAuditByUser},
		{method: http.MethodGet, pattern: "/logs/project/{projectId}", roles: adminOnly(), handler: s.handleAuditByProject},
	}
}

// Router builds the chi router from the route table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(s.opts.Log))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.opts.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	for _, rt := range s.routes() {
		var mws []func(http.Handler) http.Handler
		if rt.roles != nil {
			mws = append(mws, middleware.Guard(s.opts.Auth, rt.roles...))
		}
		// Routes without an explicit quota still get defaultQuota: every
		// endpoint is rate limited, login just gets a tighter window.
		quota := defaultQuota
		if rt.quota != nil {
			quota = *rt.quota
		}
		mws = append(mws, middleware.RateLimit(s.opts.Limiter, quota))
		r.With(mws...).Method(rt.method, rt.pattern, rt.handler)
	}
	return r
}
