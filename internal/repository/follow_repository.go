package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// FollowRepository provides database access for the follow graph.
type FollowRepository struct {
	db *sqlx.DB
}

// NewFollowRepository creates a new instance of FollowRepository.
func NewFollowRepository(db *sqlx.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Exists reports whether follower already follows followed.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM follow_edges WHERE follower_id = $1 AND followed_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, followerID, followedID); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return count > 0, nil
}

// Create inserts a follow edge. Duplicate edges are ignored so a repeated
// follow stays idempotent.
func (r *FollowRepository) Create(ctx context.Context, followerID, followedID string) error {
	const query = `INSERT INTO follow_edges (follower_id, followed_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (follower_id, followed_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, followerID, followedID, time.Now().UTC()); err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// Delete removes a follow edge.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followedID string) error {
	const query = `DELETE FROM follow_edges WHERE follower_id = $1 AND followed_id = $2`
	if _, err := r.db.ExecContext(ctx, query, followerID, followedID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// ListFollowers returns the users following the given user.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u JOIN follow_edges f ON f.follower_id = u.id WHERE f.followed_id = $1 AND u.active = TRUE ORDER BY f.created_at DESC`, prefixColumns("u", userColumns))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return users, nil
}

// ListFollowing returns the users the given user follows.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u JOIN follow_edges f ON f.followed_id = u.id WHERE f.follower_id = $1 AND u.active = TRUE ORDER BY f.created_at DESC`, prefixColumns("u", userColumns))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return users, nil
}

// CountFollowers returns how many users follow the given user.
func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM follow_edges WHERE followed_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}

// CountFollowing returns how many users the given user follows.
func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM follow_edges WHERE follower_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count following: %w", err)
	}
	return count, nil
}
