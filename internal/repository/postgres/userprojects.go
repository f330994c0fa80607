package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/LuisLuna810/coolify-managment-back/internal/errs"
	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

// UserProjectRepo stores project-to-user assignments.
type UserProjectRepo struct{ db *DB }

// NewUserProjectRepo constructs an assignment repository.
func NewUserProjectRepo(db *DB) *UserProjectRepo { return &UserProjectRepo{db: db} }

// Assign links a project to a user.
func (r *UserProjectRepo) Assign(ctx context.Context, userID, projectID string) (*model.UserProject, error) {
	up := &model.UserProject{ID: uuid.NewString(), UserID: userID, ProjectID: projectID}
	const q = `
INSERT INTO user_projects (id, user_id, project_id)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, up.ID, up.UserID, up.ProjectID)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return up, nil
}

// Unassign removes an assignment by its id.
func (r *UserProjectRepo) Unassign(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM user_projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UnassignUserProject removes the assignment for a (user, project) pair.
func (r *UserProjectRepo) UnassignUserProject(ctx context.Context, userID, projectID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM user_projects WHERE user_id=$1 AND project_id=$2`, userID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// FindByUser lists a user's assignments with the project side joined in.
func (r *UserProjectRepo) FindByUser(ctx context.Context, userID string) ([]model.UserProject, error) {
	const q = `
SELECT up.id, up.user_id, up.project_id, p.id, p.coolify_app_id, p.name, p.description
FROM user_projects up
INNER JOIN projects p ON p.id = up.project_id
WHERE up.user_id=$1
ORDER BY p.name`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.UserProject
	for rows.Next() {
		var up model.UserProject
		var p model.Project
		if err := rows.Scan(&up.ID, &up.UserID, &up.ProjectID,
			&p.ID, &p.CoolifyAppID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		up.Project = &p
		assignments = append(assignments, up)
	}
	return assignments, rows.Err()
}

// FindByProject lists a project's assignments with the user side joined in.
func (r *UserProjectRepo) FindByProject(ctx context.Context, projectID string) ([]model.UserProject, error) {
	const q = `
SELECT up.id, up.user_id, up.project_id, u.id, u.username, u.email, u.role, u.is_active
FROM user_projects up
INNER JOIN users u ON u.id = up.user_id
WHERE up.project_id=$1
ORDER BY u.email`
	rows, err := r.db.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.UserProject
	for rows.Next() {
		var up model.UserProject
		var u model.User
		if err := rows.Scan(&up.ID, &up.UserID, &up.ProjectID,
			&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive); err != nil {
			return nil, err
		}
		up.User = &u
		assignments = append(assignments, up)
	}
	return assignments, rows.Err()
}
