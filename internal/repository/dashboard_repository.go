package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountUsers returns the number of active users.
func (r *DashboardRepository) CountUsers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE active = true`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CountUsersByRole returns the active user count per role.
func (r *DashboardRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	const query = `SELECT role, COUNT(*) AS total FROM users WHERE active = true GROUP BY role`
	rows := []struct {
		Role  string `db:"role"`
		Total int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

// CountDocuments returns the document total, optionally scoped to a university.
func (r *DashboardRepository) CountDocuments(ctx context.Context, universityID string) (int, error) {
	query := `SELECT COUNT(*) FROM documents`
	args := []interface{}{}
	if universityID != "" {
		query += ` WHERE university_id = $1`
		args = append(args, universityID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// CountDocumentsByStatus returns status totals for one author's documents.
func (r *DashboardRepository) CountDocumentsByStatus(ctx context.Context, authorID string) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM documents WHERE author_id = $1 GROUP BY status`
	rows := []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, authorID); err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// CountPendingDocuments returns the pending total, optionally scoped to a university.
func (r *DashboardRepository) CountPendingDocuments(ctx context.Context, universityID string) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE status = 'PENDING'`
	args := []interface{}{}
	if universityID != "" {
		query += ` AND university_id = $1`
		args = append(args, universityID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count pending documents: %w", err)
	}
	return count, nil
}

// CountDocumentsByAuthor returns how many documents a user uploaded.
func (r *DashboardRepository) CountDocumentsByAuthor(ctx context.Context, authorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE author_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, authorID); err != nil {
		return 0, fmt.Errorf("count documents by author: %w", err)
	}
	return count, nil
}

// CountPendingElevations returns open role-elevation requests platform-wide.
func (r *DashboardRepository) CountPendingElevations(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM approval_requests WHERE kind = $1 AND status = 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.ApprovalKindRoleElevation); err != nil {
		return 0, fmt.Errorf("count pending elevations: %w", err)
	}
	return count, nil
}

// RecentDocuments returns the newest documents platform-wide.
func (r *DashboardRepository) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM documents ORDER BY created_at DESC LIMIT %d`, documentColumns, limit)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return docs, nil
}

// PendingDocuments returns the oldest pending documents for a review queue,
// optionally scoped to a university.
func (r *DashboardRepository) PendingDocuments(ctx context.Context, universityID string, limit int) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE status = 'PENDING'`
	args := []interface{}{}
	if universityID != "" {
		query += ` AND university_id = $1`
		args = append(args, universityID)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT %d`, limit)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("pending documents: %w", err)
	}
	return docs, nil
}
