package dto

// CreateUniversityRequest registers a university.
type CreateUniversityRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Acronym     string  `json:"acronym" validate:"required,max=20"`
	City        string  `json:"city" validate:"max=120"`
	ApprovalTag *string `json:"approval_tag" validate:"omitempty,min=3,max=60"`
}

// UpdateUniversityRequest modifies an existing university.
type UpdateUniversityRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Acronym     string  `json:"acronym" validate:"required,max=20"`
	City        string  `json:"city" validate:"max=120"`
	ApprovalTag *string `json:"approval_tag" validate:"omitempty,min=3,max=60"`
}

// CreateCourseRequest adds a course to a university's catalog.
type CreateCourseRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}
