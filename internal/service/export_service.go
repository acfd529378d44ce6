package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/export"
	"github.com/unishare/unishare-api/pkg/storage"
)

type exportDocumentRepository interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
}

type exportUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	MaxRows   int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string              `json:"-"`
	Token        string              `json:"token"`
	URL          string              `json:"url"`
	Format       models.ExportFormat `json:"format"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// ExportService renders moderation and account reports and persists the files
// behind signed download tokens.
type ExportService struct {
	documents exportDocumentRepository
	users     exportUserRepository
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	guard     *Guard
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(documents exportDocumentRepository, users exportUserRepository, store fileStorage, signer *storage.SignedURLSigner, guard *Guard, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		documents: documents,
		users:     users,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		guard:     guard,
		logger:    logger,
		cfg:       cfg,
	}
}

// ModerationReport renders the review outcomes of a university's documents.
// Admins can request any scope; directors only their own university.
func (s *ExportService) ModerationReport(ctx context.Context, claims *models.JWTClaims, universityID string, format models.ExportFormat) (*ExportResult, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleDirector, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDirector {
		if universityID == "" && actor.UniversityID != nil {
			universityID = *actor.UniversityID
		}
		if err := s.guard.RequireScope(actor, &universityID); err != nil {
			return nil, err
		}
	}
	if !validExportFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	docs, _, err := s.documents.List(ctx, models.DocumentFilter{
		UniversityID: universityID,
		Page:         1,
		PageSize:     s.cfg.MaxRows,
		SortBy:       "created_at",
		SortOrder:    "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents for export")
	}

	dataset := s.moderationDataset(ctx, docs)
	title := "Moderation Report"
	if universityID != "" {
		title = fmt.Sprintf("Moderation Report %s", universityID)
	}
	return s.render(string(models.ExportKindModeration), dataset, title, format)
}

// UserListing renders the account roster. Admin only.
func (s *ExportService) UserListing(ctx context.Context, claims *models.JWTClaims, format models.ExportFormat) (*ExportResult, error) {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !validExportFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	users, _, err := s.users.List(ctx, models.UserFilter{
		Page:     1,
		PageSize: s.cfg.MaxRows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users for export")
	}

	rows := make([]map[string]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, map[string]string{
			"User ID":    user.ID,
			"Full Name":  user.FullName,
			"Email":      user.Email,
			"Role":       string(user.Role),
			"University": deref(user.UniversityID),
			"Points":     fmt.Sprintf("%d", user.Points),
			"Approved":   fmt.Sprintf("%t", user.Approved),
			"Active":     fmt.Sprintf("%t", user.Active),
			"Created At": user.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"User ID", "Full Name", "Email", "Role", "University", "Points", "Approved", "Active", "Created At"},
		Rows:    rows,
	}
	return s.render(string(models.ExportKindUsers), dataset, "User Listing", format)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) moderationDataset(ctx context.Context, docs []models.Document) export.Dataset {
	rows := make([]map[string]string, 0, len(docs))
	for _, doc := range docs {
		reviewer := deref(doc.ReviewerID)
		if reviewer != "" {
			if user, err := s.users.FindByID(ctx, reviewer); err == nil {
				reviewer = user.FullName
			}
		}
		rows = append(rows, map[string]string{
			"Document ID": doc.ID,
			"Title":       doc.Title,
			"Author ID":   doc.AuthorID,
			"Status":      string(doc.Status),
			"Reviewer":    reviewer,
			"Reviewed At": formatReportTime(doc.ReviewedAt),
			"Downloads":   fmt.Sprintf("%d", doc.Downloads),
			"Views":       fmt.Sprintf("%d", doc.Views),
			"Uploaded At": doc.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"Document ID", "Title", "Author ID", "Status", "Reviewer", "Reviewed At", "Downloads", "Views", "Uploaded At"},
		Rows:    rows,
	}
}

func (s *ExportService) render(kind string, dataset export.Dataset, title string, format models.ExportFormat) (*ExportResult, error) {
	var payload []byte
	var err error
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_%s.%s", strings.ToLower(kind), time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(sanitizeFilename(filename), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(kind, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export token")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

func validExportFormat(f models.ExportFormat) bool {
	return f == models.ExportFormatCSV || f == models.ExportFormatPDF
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
