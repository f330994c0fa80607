package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

const projectColumns = `id, coolify_app_id, name, description`

// ProjectRepo stores the local mirror of Coolify applications.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Upsert creates or refreshes a project keyed by its Coolify application id
// and returns the stored row.
func (r *ProjectRepo) Upsert(ctx context.Context, p *model.Project) (*model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO projects (id, coolify_app_id, name, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (coolify_app_id)
DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description
RETURNING ` + projectColumns
	var stored model.Project
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.CoolifyAppID, p.Name, p.Description).
		Scan(&stored.ID, &stored.CoolifyAppID, &stored.Name, &stored.Description)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindAll lists every project.
func (r *ProjectRepo) FindAll(ctx context.Context) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
}

// FindByID selects one project by id.
func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.Pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id).
		Scan(&p.ID, &p.CoolifyAppID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByUser lists the projects assigned to a user.
func (r *ProjectRepo) FindByUser(ctx context.Context, userID string) ([]model.Project, error) {
	const q = `
SELECT p.id, p.coolify_app_id, p.name, p.description
FROM projects p
INNER JOIN user_projects up ON up.project_id = p.id
WHERE up.user_id=$1
ORDER BY p.name`
	return r.list(ctx, q, userID)
}

// FindAvailable lists the projects not assigned to anyone.
func (r *ProjectRepo) FindAvailable(ctx context.Context) ([]model.Project, error) {
	const q = `
SELECT p.id, p.coolify_app_id, p.name, p.description
FROM projects p
LEFT JOIN user_projects up ON up.project_id = p.id
WHERE up.project_id IS NULL
ORDER BY p.name`
	return r.list(ctx, q)
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.CoolifyAppID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
