package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
)

// ActionLogRepo persists the audit trail of remote-control actions.
type ActionLogRepo struct{ db *DB }

// NewActionLogRepo constructs an action log repository.
func NewActionLogRepo(db *DB) *ActionLogRepo { return &ActionLogRepo{db: db} }

// Insert records one executed action.
func (r *ActionLogRepo) Insert(ctx context.Context, userID, projectID, action string) (*model.ActionLog, error) {
	entry := &model.ActionLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
	const q = `
INSERT INTO action_logs (id, user_id, project_id, action, timestamp)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Pool.Exec(ctx, q, entry.ID, entry.UserID, entry.ProjectID, entry.Action, entry.Timestamp); err != nil {
		return nil, err
	}
	return entry, nil
}

const actionLogSelect = `
SELECT al.id, al.user_id, al.project_id, al.action, al.timestamp, u.username, p.name
FROM action_logs al
INNER JOIN users u ON u.id = al.user_id
INNER JOIN projects p ON p.id = al.project_id`

// List returns log entries matching the filter, newest first.
func (r *ActionLogRepo) List(ctx context.Context, f model.ActionLogFilter) ([]model.ActionLog, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		conds = append(conds, "al.user_id="+arg(f.UserID))
	}
	if f.ProjectID != "" {
		conds = append(conds, "al.project_id="+arg(f.ProjectID))
	}
	if f.Action != "" {
		conds = append(conds, "al.action="+arg(f.Action))
	}
	if f.StartDate != nil {
		conds = append(conds, "al.timestamp >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "al.timestamp <= "+arg(*f.EndDate))
	}

	q := actionLogSelect
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}
	q += "\nORDER BY al.timestamp DESC"
	if f.Limit > 0 {
		q += "\nLIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += "\nOFFSET " + arg(f.Offset)
	}
	return r.list(ctx, q, args...)
}

// ListByUser returns the newest entries for one user.
func (r *ActionLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error) {
	q := actionLogSelect + "\nWHERE al.user_id=$1\nORDER BY al.timestamp DESC\nLIMIT $2"
	return r.list(ctx, q, userID, limit)
}

// ListByProject returns the newest entries for one project.
func (r *ActionLogRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]model.ActionLog, error) {
	q := actionLogSelect + "\nWHERE al.project_id=$1\nORDER BY al.timestamp DESC\nLIMIT $2"
	return r.list(ctx, q, projectID, limit)
}

// Stats aggregates entry counts per action name.
func (r *ActionLogRepo) Stats(ctx context.Context) ([]model.ActionStat, error) {
	const q = `
SELECT action, COUNT(*) AS count
FROM action_logs
GROUP BY action
ORDER BY count DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.ActionStat
	for rows.Next() {
		var s model.ActionStat
		if err := rows.Scan(&s.Action, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *ActionLogRepo) list(ctx context.Context, q string, args ...any) ([]model.ActionLog, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActionLog
	for rows.Next() {
		var e model.ActionLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Action, &e.Timestamp,
			&e.Username, &e.ProjectName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
