package models

import "time"

// ApprovalRequestKind distinguishes the three approval workflows.
type ApprovalRequestKind string

const (
	ApprovalKindRoleElevation         ApprovalRequestKind = "ROLE_ELEVATION"
	ApprovalKindUniversityAssociation ApprovalRequestKind = "UNIVERSITY_ASSOCIATION"
	ApprovalKindDocumentReview        ApprovalRequestKind = "DOCUMENT_REVIEW"
)

// Valid reports whether the kind is known.
func (k ApprovalRequestKind) Valid() bool {
	switch k {
	case ApprovalKindRoleElevation, ApprovalKindUniversityAssociation, ApprovalKindDocumentReview:
		return true
	}
	return false
}

// ApprovalRequest routes a pending decision to an approver.
type ApprovalRequest struct {
	ID            string              `db:"id" json:"id"`
	Kind          ApprovalRequestKind `db:"kind" json:"kind"`
	RequesterID   string              `db:"requester_id" json:"requester_id"`
	ApproverID    *string             `db:"approver_id" json:"approver_id,omitempty"`
	UniversityID  *string             `db:"university_id" json:"university_id,omitempty"`
	DocumentID    *string             `db:"document_id" json:"document_id,omitempty"`
	RequestedRole *UserRole           `db:"requested_role" json:"requested_role,omitempty"`
	TagUsed       string              `db:"tag_used" json:"tag_used"`
	Message       string              `db:"message" json:"message"`
	Status        ReviewStatus        `db:"status" json:"status"`
	DecidedBy     *string             `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time          `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
}

// ApprovalRequestFilter selects pending queues per approver or kind.
type ApprovalRequestFilter struct {
	Kind         *ApprovalRequestKind
	Status       *ReviewStatus
	RequesterID  string
	ApproverID   string
	UniversityID string
	Page         int
	PageSize     int
}
