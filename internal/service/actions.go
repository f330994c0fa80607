package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
)

// Action names recorded in the audit trail.
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionRestart   = "restart"
	ActionUpdateEnv = "update_env"
	ActionViewLogs  = "view_logs"
)

const (
	statusKeyPrefix = "status:project:"
	statusTTL       = 30 * time.Second

	defaultLogLines = 100
)

// ProjectStatus is the live state of a project as Coolify reports it.
type ProjectStatus struct {
	ProjectID    string `json:"projectId"`
	Status       string `json:"status"`
	GitCommitSHA string `json:"gitCommitSha,omitempty"`
}

// ActionsService executes remote-control actions against Coolify on behalf
// of an operator. Every mutating action is access checked and audit logged.
type ActionsService struct {
	projects    ProjectRepository
	assignments UserProjectRepository
	logs        ActionLogRepository
	coolify     CoolifyAPI
	cache       *sessioncache.Cache
	log         *zap.Logger
}

// NewActionsService constructs the actions service.
func NewActionsService(projects ProjectRepository, assignments UserProjectRepository, logs ActionLogRepository, api CoolifyAPI, cache *sessioncache.Cache, log *zap.Logger) *ActionsService {
	return &ActionsService{projects: projects, assignments: assignments, logs: logs, coolify: api, cache: cache, log: log}
}

// checkAccess resolves the project and verifies the operator may act on it.
// Admins may act on any project; developers only on assigned ones.
func (s *ActionsService) checkAccess(ctx context.Context, userID string, role model.Role, projectID string) (*model.Project, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleAdmin {
		return p, nil
	}
	assigned, err := s.assignments.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, up := range assigned {
		if up.ProjectID == projectID {
			return p, nil
		}
	}
	return nil, errs.ErrForbidden
}

// Start starts the project's application.
func (s *ActionsService) Start(ctx context.Context, userID string, role model.Role, projectID string) error {
	return s.control(ctx, userID, role, projectID, ActionStart, s.coolify.Start)
}

// Stop stops the project's application.
func (s *ActionsService) Stop(ctx context.Context, userID string, role model.Role, projectID string) error {
	return s.control(ctx, userID, role, projectID, ActionStop, s.coolify.Stop)
}

// Restart restarts the project's application.
func (s *ActionsService) Restart(ctx context.Context, userID string, role model.Role, projectID string) error {
	return s.control(ctx, userID, role, projectID, ActionRestart, s.coolify.Restart)
}

func (s *ActionsService) control(ctx context.Context, userID string, role model.Role, projectID, action string, call func(context.Context, string) error) error {
	p, err := s.checkAccess(ctx, userID, role, projectID)
	if err != nil {
		return err
	}
	if err := call(ctx, p.CoolifyAppID); err != nil {
		return err
	}
	s.record(ctx, userID, projectID, action)
	s.dropStatus(ctx, projectID)
	return nil
}

// Status returns the project's live state, cached briefly because the
// frontend polls it.
func (s *ActionsService) Status(ctx context.Context, userID string, role model.Role, projectID string) (*ProjectStatus, error) {
	p, err := s.checkAccess(ctx, userID, role, projectID)
	if err != nil {
		return nil, err
	}

	key := statusKeyPrefix + projectID
	var cached ProjectStatus
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return &cached, nil
	}

	app, err := s.coolify.GetApplication(ctx, p.CoolifyAppID)
	if err != nil {
		return nil, err
	}
	status := &ProjectStatus{ProjectID: projectID, Status: app.Status, GitCommitSHA: app.GitCommitSHA}
	if err := s.cache.Set(ctx, key, status, statusTTL); err != nil {
		s.log.Warn("status cache not primed", zap.String("project", projectID), zap.Error(err))
	}
	return status, nil
}

// Envs returns the project's environment variables with unusable entries
// filtered out: empty values are dropped and only the first occurrence of a
// key survives.
func (s *ActionsService) Envs(ctx context.Context, userID string, role model.Role, projectID string) ([]coolify.Env, error) {
	p, err := s.checkAccess(ctx, userID, role, projectID)
	if err != nil {
		return nil, err
	}

	raw := s.coolify.GetEnvs(ctx, p.CoolifyAppID)
	seen := make(map[string]bool, len(raw))
	envs := make([]coolify.Env, 0, len(raw))
	for _, env := range raw {
		if env.Value == "" || seen[env.Key] {
			continue
		}
		seen[env.Key] = true
		envs = append(envs, env)
	}
	return envs, nil
}

// UpdateEnv sets one environment variable, addressed by its key name.
func (s *ActionsService) UpdateEnv(ctx context.Context, userID string, role model.Role, projectID, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: env key must not be empty", errs.ErrValidation)
	}
	p, err := s.checkAccess(ctx, userID, role, projectID)
	if err != nil {
		return err
	}

	envUUID := key
	for _, env := range s.coolify.GetEnvs(ctx, p.CoolifyAppID) {
		if env.Key == key && env.UUID != "" {
			envUUID = env.UUID
			break
		}
	}
	if err := s.coolify.UpdateEnv(ctx, p.CoolifyAppID, envUUID, value); err != nil {
		return err
	}
	s.record(ctx, userID, projectID, ActionUpdateEnv)
	return nil
}

// Logs returns the project's recent log lines. lines <= 0 falls back to the
// default window.
func (s *ActionsService) Logs(ctx context.Context, userID string, role model.Role, projectID string, lines int) ([]string, error) {
	p, err := s.checkAccess(ctx, userID, role, projectID)
	if err != nil {
		return nil, err
	}
	if lines <= 0 {
		lines = defaultLogLines
	}
	out, err := s.coolify.GetLogs(ctx, p.CoolifyAppID, lines)
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, projectID, ActionViewLogs)
	return out, nil
}

// record appends to the audit trail. A failing insert never fails the
// action that already ran.
func (s *ActionsService) record(ctx context.Context, userID, projectID, action string) {
	if _, err := s.logs.Insert(ctx, userID, projectID, action); err != nil {
		s.log.Error("action not recorded",
			zap.String("user", userID),
			zap.String("project", projectID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *ActionsService) dropStatus(ctx context.Context, projectID string) {
	if err := s.cache.Invalidate(ctx, statusKeyPrefix+projectID); err != nil {
		s.log.Warn("status cache not invalidated", zap.String("project", projectID), zap.Error(err))
	}
}
