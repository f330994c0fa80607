package service

import (
	"context"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// AuditService reads the action log.
type AuditService struct {
	logs ActionLogRepository
}

// NewAuditService constructs the audit query service.
func NewAuditService(logs ActionLogRepository) *AuditService {
	return &AuditService{logs: logs}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}

// List returns entries matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, f model.ActionLogFilter) ([]model.ActionLog, error) {
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.logs.List(ctx, f)
}

// ByUser returns the newest entries for one user.
func (s *AuditService) ByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error) {
	return s.logs.ListByUser(ctx, userID, clampLimit(limit))
}

// ByProject returns the newest entries for one project.
func (s *AuditService) ByProject(ctx context.Context, projectID string, limit int) ([]model.ActionLog, error) {
	return s.logs.ListByProject(ctx, projectID, clampLimit(limit))
}

// Stats aggregates entry counts per action.
func (s *AuditService) Stats(ctx context.Context) ([]model.ActionStat, error) {
	return s.logs.Stats(ctx)
}
