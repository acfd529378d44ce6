package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// CommentRepository provides database access for document comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment row.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO comments (id, document_id, author_id, content, parent_comment_id, likes, dislikes, created_at) VALUES (:id, :document_id, :author_id, :content, :parent_comment_id, :likes, :dislikes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// FindByID returns a comment by identifier.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	const query = `SELECT id, document_id, author_id, content, parent_comment_id, likes, dislikes, created_at FROM comments WHERE id = $1 LIMIT 1`
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return &comment, nil
}

// ListByDocument returns comments for a document, oldest first so the
// one-level thread renders in order.
func (r *CommentRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Comment, error) {
	const query = `SELECT id, document_id, author_id, content, parent_comment_id, likes, dislikes, created_at FROM comments WHERE document_id = $1 ORDER BY created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, documentID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// React applies an atomic like or dislike increment.
func (r *CommentRepository) React(ctx context.Context, id string, like bool) error {
	query := `UPDATE comments SET likes = likes + 1 WHERE id = $1`
	if !like {
		query = `UPDATE comments SET dislikes = dislikes + 1 WHERE id = $1`
	}
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("react to comment: %w", err)
	}
	return nil
}

// Delete removes a comment and its direct replies.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id = $1 OR parent_comment_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
