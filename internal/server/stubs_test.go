package server

import (
	"context"
	"sync"
	"time"

	"github.com/LuisLuna810/coolify-managment-back/internal/coolify"
	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

// In-memory repositories backing the HTTP tests. They hold the mutex the
// real postgres pool would otherwise provide, because handlers run on the
// test server's goroutines.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.users {
		if have.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *memUserRepo) Update(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return errs.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	byUser   map[string][]string
}

func (r *memProjectRepo) Upsert(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *memProjectRepo) FindAll(ctx context.Context) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProjectRepo) grant(userID, projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = append(r.byUser[userID], projectID)
}

func (r *memProjectRepo) FindByUser(ctx context.Context, userID string) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for _, id := range r.byUser[userID] {
		if p, ok := r.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProjectRepo) FindAvailable(ctx context.Context) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type memAssignmentRepo struct {
	mu          sync.Mutex
	assignments []model.UserProject
}

func (r *memAssignmentRepo) Assign(ctx context.Context, userID, projectID string) (*model.UserProject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, up := range r.assignments {
		if up.UserID == userID && up.ProjectID == projectID {
			return nil, errs.ErrAlreadyExists
		}
	}
	up := model.UserProject{ID: "up-" + userID + "-" + projectID, UserID: userID, ProjectID: projectID}
	r.assignments = append(r.assignments, up)
	return &up, nil
}

func (r *memAssignmentRepo) Unassign(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, up := range r.assignments {
		if up.ID == id {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *memAssignmentRepo) UnassignUserProject(ctx context.Context, userID, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, up := range r.assignments {
		if up.UserID == userID && up.ProjectID == projectID {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (r *memAssignmentRepo) FindByUser(ctx context.Context, userID string) ([]model.UserProject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UserProject
	for _, up := range r.assignments {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) FindByProject(ctx context.Context, projectID string) ([]model.UserProject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UserProject
	for _, up := range r.assignments {
		if up.ProjectID == projectID {
			out = append(out, up)
		}
	}
	return out, nil
}

type memActionLogRepo struct {
	mu      sync.Mutex
	entries []model.ActionLog
}

func (r *memActionLogRepo) Insert(ctx context.Context, userID, projectID, action string) (*model.ActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := model.ActionLog{ID: "l", UserID: userID, ProjectID: projectID, Action: action, Timestamp: time.Now().UTC()}
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *memActionLogRepo) List(ctx context.Context, f model.ActionLogFilter) ([]model.ActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ActionLog
	for _, e := range r.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memActionLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error) {
	return r.List(ctx, model.ActionLogFilter{UserID: userID})
}

func (r *memActionLogRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]model.ActionLog, error) {
	return r.List(ctx, model.ActionLogFilter{ProjectID: projectID})
}

func (r *memActionLogRepo) Stats(ctx context.Context) ([]model.ActionStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type recordingCoolify struct {
	mu        sync.Mutex
	apps      []coolify.Application
	envs      []coolify.Env
	logLines  []string
	calls     []string
	envUpdate struct {
		appID, envUUID, value string
	}
}

func (c *recordingCoolify) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *recordingCoolify) GetApplications(ctx context.Context) ([]coolify.Application, error) {
	c.record("applications")
	return c.apps, nil
}

func (c *recordingCoolify) GetApplication(ctx context.Context, appID string) (*coolify.Application, error) {
	c.record("application:" + appID)
	for _, app := range c.apps {
		if app.UUID == appID {
			cp := app
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (c *recordingCoolify) Start(ctx context.Context, appID string) error {
	c.record("start:" + appID)
	return nil
}

func (c *recordingCoolify) Stop(ctx context.Context, appID string) error {
	c.record("stop:" + appID)
	return nil
}

func (c *recordingCoolify) Restart(ctx context.Context, appID string) error {
	c.record("restart:" + appID)
	return nil
}

func (c *recordingCoolify) GetEnvs(ctx context.Context, appID string) []coolify.Env {
	c.record("envs:" + appID)
	return c.envs
}

func (c *recordingCoolify) UpdateEnv(ctx context.Context, appID, envUUID, value string) error {
	c.record("update_env:" + appID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envUpdate.appID, c.envUpdate.envUUID, c.envUpdate.value = appID, envUUID, value
	return nil
}

func (c *recordingCoolify) GetLogs(ctx context.Context, appID string, lines int) ([]string, error) {
	c.record("logs:" + appID)
	return c.logLines, nil
}
