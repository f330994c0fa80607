package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
)

const (
	projectsAllKey     = "projects:all"
	projectsUserPrefix = "projects:user:"
	projectsPattern    = "projects:*"

	projectListTTL = time.Minute
)

// ProjectsService serves the local project mirror and keeps it in sync with
// Coolify.
type ProjectsService struct {
	repo    ProjectRepository
	coolify CoolifyAPI
	cache   *sessioncache.Cache
	log     *zap.Logger
}

// NewProjectsService constructs the project service.
func NewProjectsService(repo ProjectRepository, api CoolifyAPI, cache *sessioncache.Cache, log *zap.Logger) *ProjectsService {
	return &ProjectsService{repo: repo, coolify: api, cache: cache, log: log}
}

// List returns every project. The list is cached briefly because the
// frontend polls it.
func (s *ProjectsService) List(ctx context.Context) ([]model.Project, error) {
	var cached []model.Project
	if ok, _ := s.cache.Get(ctx, projectsAllKey, &cached); ok {
		return cached, nil
	}
	projects, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, projectsAllKey, projects, projectListTTL); err != nil {
		s.log.Warn("project list cache not primed", zap.Error(err))
	}
	return projects, nil
}

// Get returns one project by id.
func (s *ProjectsService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.FindByID(ctx, id)
}

// ByUser returns the projects assigned to a user.
func (s *ProjectsService) ByUser(ctx context.Context, userID string) ([]model.Project, error) {
	key := projectsUserPrefix + userID
	var cached []model.Project
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	projects, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, projects, projectListTTL); err != nil {
		s.log.Warn("project list cache not primed", zap.String("user", userID), zap.Error(err))
	}
	return projects, nil
}

// Available returns the projects not assigned to anyone.
func (s *ProjectsService) Available(ctx context.Context) ([]model.Project, error) {
	return s.repo.FindAvailable(ctx)
}

// Sync pulls the application list from Coolify, upserts each entry into the
// mirror, and drops every cached project list. It returns the number of
// applications seen.
func (s *ProjectsService) Sync(ctx context.Context) (int, error) {
	apps, err := s.coolify.GetApplications(ctx)
	if err != nil {
		return 0, err
	}
	for _, app := range apps {
		p := &model.Project{
			CoolifyAppID: app.UUID,
			Name:         app.Name,
			Description:  app.Description,
		}
		if _, err := s.repo.Upsert(ctx, p); err != nil {
			s.log.Error("project upsert failed", zap.String("app", app.UUID), zap.Error(err))
		}
	}
	if err := s.cache.InvalidatePattern(ctx, projectsPattern); err != nil {
		s.log.Warn("project caches not invalidated", zap.Error(err))
	}
	return len(apps), nil
}

// RunSync syncs on the given interval until the context is canceled. One
// sync runs immediately.
func (s *ProjectsService) RunSync(ctx context.Context, interval time.Duration) {
	sync := func() {
		n, err := s.Sync(ctx)
		if err != nil {
			s.log.Error("project sync failed", zap.Error(err))
			return
		}
		s.log.Debug("project sync done", zap.Int("applications", n))
	}
	sync()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		}
	}
}
