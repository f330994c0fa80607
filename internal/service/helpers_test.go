package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/kvstore"
	"github.com/LuisLuna810/coolify-managment-back/sessioncache"
)

func newCache(t *testing.T) (*sessioncache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return sessioncache.New(kvstore.New(rdb), 0, 0), mr
}

type stubUserRepo struct {
	users     map[string]*model.User
	findCalls int
	updErr    error
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *stubUserRepo) Create(ctx context.Context, u *model.User) error {
	for _, have := range r.users {
		if have.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.findCalls++
	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.findCalls++
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *stubUserRepo) Update(ctx context.Context, u *model.User) error {
	if r.updErr != nil {
		return r.updErr
	}
	if _, ok := r.users[u.ID]; !ok {
		return errs.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type stubProjectRepo struct {
	projects  map[string]*model.Project
	byUser    map[string][]string
	findCalls int
	upserts   int
}

func newStubProjectRepo(projects ...*model.Project) *stubProjectRepo {
	r := &stubProjectRepo{projects: make(map[string]*model.Project), byUser: make(map[string][]string)}
	for _, p := range projects {
		cp := *p
		r.projects[p.ID] = &cp
	}
	return r
}

func (r *stubProjectRepo) Upsert(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.upserts++
	for _, have := range r.projects {
		if have.CoolifyAppID == p.CoolifyAppID {
			have.Name, have.Description = p.Name, p.Description
			cp := *have
			return &cp, nil
		}
	}
	if p.ID == "" {
		p.ID = "p-" + p.CoolifyAppID
	}
	cp := *p
	r.projects[p.ID] = &cp
	return &cp, nil
}

func (r *stubProjectRepo) FindAll(ctx context.Context) ([]model.Project, error) {
	r.findCalls++
	var out []model.Project
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProjectRepo) FindByUser(ctx context.Context, userID string) ([]model.Project, error) {
	r.findCalls++
	var out []model.Project
	for _, id := range r.byUser[userID] {
		if p, ok := r.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProjectRepo) FindAvailable(ctx context.Context) ([]model.Project, error) {
	assigned := make(map[string]bool)
	for _, ids := range r.byUser {
		for _, id := range ids {
			assigned[id] = true
		}
	}
	var out []model.Project
	for id, p := range r.projects {
		if !assigned[id] {
			out = append(out, *p)
		}
	}
	return out, nil
}

type stubAssignmentRepo struct {
	assignments []model.UserProject
}

func (r *stubAssignmentRepo) Assign(ctx context.Context, userID, projectID string) (*model.UserProject, error) {
	for _, up := range r.assignments {
		if up.UserID == userID && up.ProjectID == projectID {
			return nil, errs.ErrAlreadyExists
		}
	}
	up := model.UserProject{ID: "up-" + userID + "-" + projectID, UserID: userID, ProjectID: projectID}
	r.assignments = append(r.assignments, up)
	return &up, nil
}

func (r *stubAssignmentRepo) Unassign(ctx context.Context, id string) error {
	for i, up := range r.assignments {
		if up.ID == id {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *stubAssignmentRepo) UnassignUserProject(ctx context.Context, userID, projectID string) error {
	for i, up := range r.assignments {
		if up.UserID == userID && up.ProjectID == projectID {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *stubAssignmentRepo) FindByUser(ctx context.Context, userID string) ([]model.UserProject, error) {
	var out []model.UserProject
	for _, up := range r.assignments {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	return out, nil
}

func (r *stubAssignmentRepo) FindByProject(ctx context.Context, projectID string) ([]model.UserProject, error) {
	var out []model.UserProject
	for _, up := range r.assignments {
		if up.ProjectID == projectID {
			out = append(out, up)
		}
	}
	return out, nil
}

type stubActionLogRepo struct {
	entries []model.ActionLog
	err     error
}

func (r *stubActionLogRepo) Insert(ctx context.Context, userID, projectID, action string) (*model.ActionLog, error) {
	if r.err != nil {
		return nil, r.err
	}
	entry := model.ActionLog{ID: "l", UserID: userID, ProjectID: projectID, Action: action, Timestamp: time.Now().UTC()}
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *stubActionLogRepo) List(ctx context.Context, f model.ActionLogFilter) ([]model.ActionLog, error) {
	return r.entries, nil
}

func (r *stubActionLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error) {
	return r.entries, nil
}

func (r *stubActionLogRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]model.ActionLog, error) {
	return r.entries, nil
}

func (r *stubActionLogRepo) Stats(ctx context.Context) ([]model.ActionStat, error) {
	counts := make(map[string]int64)
	for _, e := range r.entries {
		counts[e.Action]++
	}
	var out []model.ActionStat
	for action, n := range counts {
		out = append(out, model.ActionStat{Action: action, Count: n})
	}
	return out, nil
}

type stubCoolify struct {
	apps      []coolify.Application
	envs      []coolify.Env
	logLines  []string
	listErr   error
	calls     []string
	envUpdate struct {
		appID, envUUID, value string
	}
}

func (c *stubCoolify) GetApplications(ctx context.Context) ([]coolify.Application, error) {
	c.calls = append(c.calls, "applications")
	return c.apps, c.listErr
}

func (c *stubCoolify) GetApplication(ctx context.Context, appID string) (*coolify.Application, error) {
	c.calls = append(c.calls, "application:"+appID)
	for _, app := range c.apps {
		if app.UUID == appID {
			cp := app
			return &cp, nil
		}
	}
	return nil, errors.New("application not found")
}

func (c *stubCoolify) Start(ctx context.Context, appID string) error {
	c.calls = append(c.calls, "start:"+appID)
	return nil
}

func (c *stubCoolify) Stop(ctx context.Context, appID string) error {
	c.calls = append(c.calls, "stop:"+appID)
	return nil
}

func (c *stubCoolify) Restart(ctx context.Context, appID string) error {
	c.calls = append(c.calls, "restart:"+appID)
	return nil
}

func (c *stubCoolify) GetEnvs(ctx context.Context, appID string) []coolify.Env {
	c.calls = append(c.calls, "envs:"+appID)
	return c.envs
}

func (c *stubCoolify) UpdateEnv(ctx context.Context, appID, envUUID, value string) error {
	c.calls = append(c.calls, "update_env:"+appID)
	c.envUpdate.appID, c.envUpdate.envUUID, c.envUpdate.value = appID, envUUID, value
	return nil
}

func (c *stubCoolify) GetLogs(ctx context.Context, appID string, lines int) ([]string, error) {
	c.calls = append(c.calls, "logs:"+appID)
	return c.logLines, nil
}

type stubInvalidator struct{ invalidated []string }

func (s *stubInvalidator) InvalidateToken(ctx context.Context, raw string) error {
	s.invalidated = append(s.invalidated, raw)
	return nil
}

func testLogger() *zap.Logger { return zap.NewNop() }

func sessionRecord(userID string) sessioncache.Record {
	return sessioncache.Record{
		UserID:    userID,
		Token:     "tok-" + userID,
		LoginTime: time.Now().UTC(),
		Email:     userID + "@example.com",
		Role:      model.RoleDeveloper,
		Username:  userID,
	}
}
