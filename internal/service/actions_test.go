package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

type actionsFixture struct {
	svc         *ActionsService
	coolify     *stubCoolify
	logs        *stubActionLogRepo
	assignments *stubAssignmentRepo
}

func newActionsFixture(t *testing.T) *actionsFixture {
	t.Helper()
	cache, _ := newCache(t)
	projects := newStubProjectRepo(&model.Project{ID: "p1", CoolifyAppID: "app-1", Name: "api"})
	assignments := &stubAssignmentRepo{}
	logs := &stubActionLogRepo{}
	api := &stubCoolify{apps: []coolify.Application{{UUID: "app-1", Status: "running", GitCommitSHA: "abc1234"}}}
	return &actionsFixture{
		svc:         NewActionsService(projects, assignments, logs, api, cache, testLogger()),
		coolify:     api,
		logs:        logs,
		assignments: assignments,
	}
}

func TestActionsService_Restart_AdminBypass(t *testing.T) {
	f := newActionsFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Restart(ctx, "u1", model.RoleAdmin, "p1"))
	require.Contains(t, f.coolify.calls, "restart:app-1")
	require.Len(t, f.logs.entries, 1)
	require.Equal(t, ActionRestart, f.logs.entries[0].Action)
	require.Equal(t, "p1", f.logs.entries[0].ProjectID)
}

func TestActionsService_Developer_RequiresAssignment(t *testing.T) {
	f := newActionsFixture(t)
	ctx := context.Background()

	err := f.svc.Start(ctx, "u1", model.RoleDeveloper, "p1")
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Empty(t, f.logs.entries)

	_, err = f.assignments.Assign(ctx, "u1", "p1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Start(ctx, "u1", model.RoleDeveloper, "p1"))
	require.Contains(t, f.coolify.calls, "start:app-1")
}

func TestActionsService_UnknownProject(t *testing.T) {
	f := newActionsFixture(t)

	err := f.svc.Stop(context.Background(), "u1", model.RoleAdmin, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestActionsService_Status_Cached(t *testing.T) {
	f := newActionsFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status, err := f.svc.Status(ctx, "u1", model.RoleAdmin, "p1")
		require.NoError(t, err)
		require.Equal(t, "running", status.Status)
		require.Equal(t, "abc1234", status.GitCommitSHA)
	}

	fetches := 0
	for _, call := range f.coolify.calls {
		if call == "application:app-1" {
			fetches++
		}
	}
	require.Equal(t, 1, fetches)
}

func TestActionsService_Restart_DropsStatusCache(t *testing.T) {
	f := newActionsFixture(t)
	ctx := context.Background()

	_, err := f.svc.Status(ctx, "u1", model.RoleAdmin, "p1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Restart(ctx, "u1", model.RoleAdmin, "p1"))
	f.coolify.apps[0].Status = "restarting"

	status, err := f.svc.Status(ctx, "u1", model.RoleAdmin, "p1")
	require.NoError(t, err)
	require.Equal(t, "restarting", status.Status)
}

func TestActionsService_Envs_Filtered(t *testing.T) {
	f := newActionsFixture(t)
	f.coolify.envs = []coolify.Env{
		{UUID: "e1", Key: "DATABASE_URL", Value: "postgres://db"},
		{UUID: "e2", Key: "EMPTY", Value: ""},
		{UUID: "e3", Key: "DATABASE_URL", Value: "postgres://dup"},
		{UUID: "e4", Key: "PORT", Value: "8080"},
	}

	envs, err := f.svc.Envs(context.Background(), "u1", model.RoleAdmin, "p1")
	require.NoError(t, err)
	require.Len(t, envs, 2)
	require.Equal(t, "DATABASE_URL", envs[0].Key)
	require.Equal(t, "postgres://db", envs[0].Value)
	require.Equal(t, "PORT", envs[1].Key)
}

func TestActionsService_UpdateEnv(t *testing.T) {
	f := newActionsFixture(t)
	f.coolify.envs = []coolify.Env{{UUID: "e1", Key: "PORT", Value: "8080"}}
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateEnv(ctx, "u1", model.RoleAdmin, "p1", "PORT", "9090"))
	require.Equal(t, "app-1", f.coolify.envUpdate.appID)
	require.Equal(t, "e1", f.coolify.envUpdate.envUUID)
	require.Equal(t, "9090", f.coolify.envUpdate.value)
	require.Len(t, f.logs.entries, 1)
	require.Equal(t, ActionUpdateEnv, f.logs.entries[0].Action)

	// unknown keys pass through by name so Coolify can create them
	require.NoError(t, f.svc.UpdateEnv(ctx, "u1", model.RoleAdmin, "p1", "NEW_KEY", "v"))
	require.Equal(t, "NEW_KEY", f.coolify.envUpdate.envUUID)

	require.ErrorIs(t, f.svc.UpdateEnv(ctx, "u1", model.RoleAdmin, "p1", "", "v"), errs.ErrValidation)
}

func TestActionsService_Logs(t *testing.T) {
	f := newActionsFixture(t)
	f.coolify.logLines = []string{"line 1", "line 2"}

	lines, err := f.svc.Logs(context.Background(), "u1", model.RoleAdmin, "p1", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"line 1", "line 2"}, lines)
	require.Len(t, f.logs.entries, 1)
	require.Equal(t, ActionViewLogs, f.logs.entries[0].Action)
}

func TestActionsService_AuditFailureDoesNotFailAction(t *testing.T) {
	f := newActionsFixture(t)
	f.logs.err = context.DeadlineExceeded

	require.NoError(t, f.svc.Restart(context.Background(), "u1", model.RoleAdmin, "p1"))
	require.Contains(t, f.coolify.calls, "restart:app-1")
}
