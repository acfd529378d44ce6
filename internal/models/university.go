package models

import "time"

// University groups directors, courses and scoped documents.
type University struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Acronym     string    `db:"acronym" json:"acronym"`
	City        string    `db:"city" json:"city"`
	ApprovalTag *string   `db:"approval_tag" json:"approval_tag,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Course belongs to a university's catalog.
type Course struct {
	ID           string    `db:"id" json:"id"`
	UniversityID string    `db:"university_id" json:"university_id"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
