package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

const approvalColumns = `id, kind, requester_id, approver_id, university_id, document_id, requested_role, tag_used, message, status, decided_by, decided_at, created_at`

// ApprovalRepository provides database access for approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository creates a new instance of ApprovalRepository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a new approval request.
func (r *ApprovalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_requests (id, kind, requester_id, approver_id, university_id, document_id, requested_role, tag_used, message, status, created_at) VALUES (:id, :kind, :requester_id, :approver_id, :university_id, :document_id, :requested_role, :tag_used, :message, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// FindByID returns an approval request by identifier.
func (r *ApprovalRepository) FindByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_requests WHERE id = $1 LIMIT 1`, approvalColumns)
	var req models.ApprovalRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find approval request by id: %w", err)
	}
	return &req, nil
}

// HasPending reports whether the requester already has an open request of this kind.
func (r *ApprovalRepository) HasPending(ctx context.Context, requesterID string, kind models.ApprovalRequestKind) (bool, error) {
	const query = `SELECT COUNT(*) FROM approval_requests WHERE requester_id = $1 AND kind = $2 AND status = 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, requesterID, kind); err != nil {
		return false, fmt.Errorf("check pending approval request: %w", err)
	}
	return count > 0, nil
}

// Decide lands a review decision. The WHERE clause re-checks the pending state
// so two concurrent approvers cannot both decide the same request.
func (r *ApprovalRepository) Decide(ctx context.Context, id string, status models.ReviewStatus, decidedBy string, decidedAt time.Time) error {
	const query = `UPDATE approval_requests SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, status, decidedBy, decidedAt)
	if err != nil {
		return fmt.Errorf("decide approval request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decide approval request: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns approval requests based on filters with total count.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error) {
	baseQuery := `FROM approval_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.ApproverID != "" {
		conditions = append(conditions, fmt.Sprintf("approver_id = $%d", len(args)+1))
		args = append(args, filter.ApproverID)
	}
	if filter.UniversityID != "" {
		conditions = append(conditions, fmt.Sprintf("university_id = $%d", len(args)+1))
		args = append(args, filter.UniversityID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", approvalColumns, baseQuery, pageSize, offset)

	var requests []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list approval requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count approval requests: %w", err)
	}

	return requests, total, nil
}

// CountPendingByUniversity returns the number of open requests scoped to a university.
func (r *ApprovalRepository) CountPendingByUniversity(ctx context.Context, universityID string) (int, error) {
	const query = `SELECT COUNT(*) FROM approval_requests WHERE university_id = $1 AND status = 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, universityID); err != nil {
		return 0, fmt.Errorf("count pending approval requests: %w", err)
	}
	return count, nil
}
