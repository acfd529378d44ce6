package dto

import "github.com/unishare/unishare-api/internal/models"

// UpdateProfileRequest edits the caller's own profile.
type UpdateProfileRequest struct {
	FullName     string  `json:"full_name" validate:"required,max=200"`
	UniversityID *string `json:"university_id"`
}

// AdminUpdateUserRequest edits an account as administrator.
type AdminUpdateUserRequest struct {
	FullName     string  `json:"full_name" validate:"required,max=200"`
	Role         string  `json:"role" validate:"required,oneof=ORDINARY STUDENT PROFESSOR DIRECTOR ADMIN"`
	UniversityID *string `json:"university_id"`
	Approved     bool    `json:"approved"`
	Active       bool    `json:"active"`
}

// RegisterApprovalTagRequest claims a routing tag for a professor.
type RegisterApprovalTagRequest struct {
	Tag string `json:"tag" validate:"required,min=3,max=60"`
}

// ProfileResponse is the public view of a user with gamification data.
type ProfileResponse struct {
	User   models.User      `json:"user"`
	Stats  models.UserStats `json:"stats"`
	Level  int              `json:"level"`
	Badges []string         `json:"badges"`
}
