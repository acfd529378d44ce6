package models

import (
	"time"

	"github.com/lib/pq"
)

// Document represents an uploaded academic resource.
type Document struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	FileType     string         `db:"file_type" json:"file_type"`
	FilePath     string         `db:"file_path" json:"-"`
	SizeBytes    int64          `db:"size_bytes" json:"size_bytes"`
	UniversityID *string        `db:"university_id" json:"university_id,omitempty"`
	Course       string         `db:"course" json:"course"`
	Subject      string         `db:"subject" json:"subject"`
	AuthorID     string         `db:"author_id" json:"author_id"`
	Status       ReviewStatus   `db:"status" json:"status"`
	ReviewerID   *string        `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewedAt   *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Downloads    int            `db:"downloads" json:"downloads"`
	Views        int            `db:"views" json:"views"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentFilter captures browse/list criteria.
type DocumentFilter struct {
	UniversityID string
	Course       string
	Subject      string
	Tag          string
	AuthorID     string
	Status       *ReviewStatus
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Favorite is a join row toggled on/off per (user, document).
type Favorite struct {
	UserID     string    `db:"user_id" json:"user_id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
