// Package model holds the gateway's domain types: users, projects,
// assignments, and action logs. JSON tags follow the wire shapes the
// frontend already consumes.
package model

import "time"

// Role is the authorization role carried in tokens and user rows.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDeveloper
}

// User is a gateway operator account. PasswordHash never leaves the server.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"isActive"`
}

// Project mirrors an application hosted on Coolify. CoolifyAppID is the
// identifier Coolify itself uses.
type Project struct {
	ID           string `json:"id"`
	CoolifyAppID string `json:"coolifyAppId"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
}

// UserProject assigns a project to a user. The joined entity is populated
// by the repository depending on the query direction.
type UserProject struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	ProjectID string   `json:"projectId"`
	User      *User    `json:"user,omitempty"`
	Project   *Project `json:"project,omitempty"`
}

// ActionLog records a remote-control action executed against a project.
type ActionLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ProjectID   string    `json:"projectId"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	Username    string    `json:"username,omitempty"`
	ProjectName string    `json:"projectName,omitempty"`
}

// ActionLogFilter narrows action log queries.
type ActionLogFilter struct {
	Limit     int
	Offset    int
	UserID    string
	ProjectID string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
}

// ActionStat is one row of the per-action aggregate.
type ActionStat struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}
