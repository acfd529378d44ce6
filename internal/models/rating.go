package models

import "time"

// Rating is one score per (document, user) pair.
type Rating struct {
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Score      int       `db:"score" json:"score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary is the on-read aggregate for a document.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
