package models

import "time"

// UserRole represents the five mutually exclusive actor roles.
type UserRole string

const (
	RoleOrdinary  UserRole = "ORDINARY"
	RoleStudent   UserRole = "STUDENT"
	RoleProfessor UserRole = "PROFESSOR"
	RoleDirector  UserRole = "DIRECTOR"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether the role is one of the known tags.
func (r UserRole) Valid() bool {
	switch r {
	case RoleOrdinary, RoleStudent, RoleProfessor, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

// Elevated roles must be approved before they can sign in.
func (r UserRole) Elevated() bool {
	return r == RoleProfessor || r == RoleDirector
}

// CanModerateDocuments reports whether the role may approve or reject documents.
func (r UserRole) CanModerateDocuments() bool {
	return r == RoleProfessor || r == RoleDirector || r == RoleAdmin
}

// CanGrade reports whether the role may attach grades to student documents.
func (r UserRole) CanGrade() bool {
	return r == RoleProfessor
}

// CanManageUsers reports whether the role may administer accounts.
func (r UserRole) CanManageUsers() bool {
	return r == RoleAdmin
}

// UniversityScoped reports whether moderation by this role is limited to the
// actor's own university.
func (r UserRole) UniversityScoped() bool {
	return r == RoleProfessor || r == RoleDirector
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	UniversityID *string    `db:"university_id" json:"university_id,omitempty"`
	ApprovalTag  *string    `db:"approval_tag" json:"approval_tag,omitempty"`
	Points       int        `db:"points" json:"points"`
	Approved     bool       `db:"approved" json:"approved"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Active       *bool
	Approved     *bool
	UniversityID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// UserStats aggregates profile counters shown on public profiles.
type UserStats struct {
	Uploads   int `db:"uploads" json:"uploads"`
	Approved  int `db:"approved" json:"approved"`
	Followers int `db:"followers" json:"followers"`
	Following int `db:"following" json:"following"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
