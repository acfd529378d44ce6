package dto

// CreateApprovalRequest opens a role-elevation or university-association request.
type CreateApprovalRequest struct {
	Kind          string  `json:"kind" validate:"required,oneof=ROLE_ELEVATION UNIVERSITY_ASSOCIATION"`
	RequestedRole *string `json:"requested_role" validate:"omitempty,oneof=PROFESSOR DIRECTOR"`
	UniversityID  *string `json:"university_id"`
	Message       string  `json:"message" validate:"max=2000"`
}

// DecideApprovalRequest resolves a pending approval request.
type DecideApprovalRequest struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVE REJECT"`
}
