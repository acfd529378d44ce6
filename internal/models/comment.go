package models

import "time"

// Comment on a document, with optional one-level threading.
type Comment struct {
	ID              string    `db:"id" json:"id"`
	DocumentID      string    `db:"document_id" json:"document_id"`
	AuthorID        string    `db:"author_id" json:"author_id"`
	Content         string    `db:"content" json:"content"`
	ParentCommentID *string   `db:"parent_comment_id" json:"parent_comment_id,omitempty"`
	Likes           int       `db:"likes" json:"likes"`
	Dislikes        int       `db:"dislikes" json:"dislikes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
