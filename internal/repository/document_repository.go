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

const documentColumns = `id, title, description, file_type, file_path, size_bytes, university_id, course, subject, author_id, status, reviewer_id, reviewed_at, downloads, views, tags, created_at, updated_at`

// DocumentRepository provides database access for documents and favorites.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	const query = `INSERT INTO documents (id, title, description, file_type, file_path, size_bytes, university_id, course, subject, author_id, status, downloads, views, tags, created_at, updated_at) VALUES (:id, :title, :description, :file_type, :file_path, :size_bytes, :university_id, :course, :subject, :author_id, :status, :downloads, :views, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// UpdateStatus records a moderation decision. The WHERE clause re-checks the
// pending state so two concurrent reviewers cannot both land a decision.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, reviewedAt time.Time) error {
	const query = `UPDATE documents SET status = $2, reviewer_id = $3, reviewed_at = $4, updated_at = $4 WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewerID, reviewedAt)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViews bumps the view counter in place.
func (r *DocumentRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE documents SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter in place.
func (r *DocumentRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE documents SET downloads = downloads + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

// Delete removes a document row permanently.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns documents based on filters with total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	baseQuery := `FROM documents WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UniversityID != "" {
		conditions = append(conditions, fmt.Sprintf("university_id = $%d", len(args)+1))
		args = append(args, filter.UniversityID)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)+1))
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"title":      true,
		"downloads":  true,
		"views":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", documentColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return docs, total, nil
}

// HasFavorite reports whether the (user, document) favorite row exists.
func (r *DocumentRepository) HasFavorite(ctx context.Context, userID, documentID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM favorites WHERE user_id = $1 AND document_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, documentID); err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}

// AddFavorite inserts the join row.
func (r *DocumentRepository) AddFavorite(ctx context.Context, userID, documentID string) error {
	const query = `INSERT INTO favorites (user_id, document_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, userID, documentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the join row.
func (r *DocumentRepository) RemoveFavorite(ctx context.Context, userID, documentID string) error {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND document_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, documentID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the documents a user marked as favorites.
func (r *DocumentRepository) ListFavorites(ctx context.Context, userID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents d JOIN favorites f ON f.document_id = d.id WHERE f.user_id = $1 ORDER BY f.created_at DESC`, prefixColumns("d", documentColumns))
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return docs, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
