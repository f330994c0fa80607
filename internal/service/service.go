// Package service contains the gateway's application services: account
// management, project sync, remote-control actions, and the audit trail.
// Services own caching and authorization decisions; repositories and the
// Coolify client stay dumb.
package service

import (
	"context"

	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

// UserRepository is the persistence surface for operator accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindAll(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
}

// ProjectRepository is the persistence surface for the project mirror.
type ProjectRepository interface {
	Upsert(ctx context.Context, p *model.Project) (*model.Project, error)
	FindAll(ctx context.Context) ([]model.Project, error)
	FindByID(ctx context.Context, id string) (*model.Project, error)
	FindByUser(ctx context.Context, userID string) ([]model.Project, error)
	FindAvailable(ctx context.Context) ([]model.Project, error)
}

// UserProjectRepository is the persistence surface for assignments.
type UserProjectRepository interface {
	Assign(ctx context.Context, userID, projectID string) (*model.UserProject, error)
	Unassign(ctx context.Context, id string) error
	UnassignUserProject(ctx context.Context, userID, projectID string) error
	FindByUser(ctx context.Context, userID string) ([]model.UserProject, error)
	FindByProject(ctx context.Context, projectID string) ([]model.UserProject, error)
}

// ActionLogRepository is the persistence surface for the audit trail.
type ActionLogRepository interface {
	Insert(ctx context.Context, userID, projectID, action string) (*model.ActionLog, error)
	List(ctx context.Context, f model.ActionLogFilter) ([]model.ActionLog, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]model.ActionLog, error)
	Stats(ctx context.Context) ([]model.ActionStat, error)
}

// CoolifyAPI is the slice of the Coolify client the services consume.
type CoolifyAPI interface {
	GetApplications(ctx context.Context) ([]coolify.Application, error)
	GetApplication(ctx context.Context, appID string) (*coolify.Application, error)
	Start(ctx context.Context, appID string) error
	Stop(ctx context.Context, appID string) error
	Restart(ctx context.Context, appID string) error
	GetEnvs(ctx context.Context, appID string) []coolify.Env
	UpdateEnv(ctx context.Context, appID, envUUID, value string) error
	GetLogs(ctx context.Context, appID string, lines int) ([]string, error)
}
