package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
)

// AssignmentsService manages which developer can operate which project.
type AssignmentsService struct {
	repo  UserProjectRepository
	cache *sessioncache.Cache
	log   *zap.Logger
}

// NewAssignmentsService constructs the assignment service.
func NewAssignmentsService(repo UserProjectRepository, cache *sessioncache.Cache, log *zap.Logger) *AssignmentsService {
	return &AssignmentsService{repo: repo, cache: cache, log: log}
}

// Assign links a project to a user and drops the cached project lists that
// just went stale.
func (s *AssignmentsService) Assign(ctx context.Context, userID, projectID string) (*model.UserProject, error) {
	up, err := s.repo.Assign(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return up, nil
}

// Unassign removes an assignment by id.
func (s *AssignmentsService) Unassign(ctx context.Context, id string) error {
	if err := s.repo.Unassign(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UnassignUserProject removes the assignment for a (user, project) pair.
func (s *AssignmentsService) UnassignUserProject(ctx context.Context, userID, projectID string) error {
	if err := s.repo.UnassignUserProject(ctx, userID, projectID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ByUser lists a user's assignments with projects attached.
func (s *AssignmentsService) ByUser(ctx context.Context, userID string) ([]model.UserProject, error) {
	return s.repo.FindByUser(ctx, userID)
}

// ByProject lists a project's assignments with users attached.
func (s *AssignmentsService) ByProject(ctx context.Context, projectID string) ([]model.UserProject, error) {
	return s.repo.FindByProject(ctx, projectID)
}

func (s *AssignmentsService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePattern(ctx, projectsPattern); err != nil {
		s.log.Warn("project caches not invalidated", zap.Error(err))
	}
}
