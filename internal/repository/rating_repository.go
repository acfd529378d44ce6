package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// RatingRepository provides database access for document ratings.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new instance of RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert records one score per (document, user) pair, replacing any prior score.
func (r *RatingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	now := time.Now().UTC()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	const query = `INSERT INTO ratings (document_id, user_id, score, created_at, updated_at)
		VALUES (:document_id, :user_id, :score, :created_at, :updated_at)
		ON CONFLICT (document_id, user_id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// ListByDocument returns every rating row for a document.
func (r *RatingRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Rating, error) {
	const query = `SELECT document_id, user_id, score, created_at, updated_at FROM ratings WHERE document_id = $1`
	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, documentID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}
