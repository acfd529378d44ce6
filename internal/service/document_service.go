package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/storage"
)

type documentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	UpdateStatus(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, reviewedAt time.Time) error
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	HasFavorite(ctx context.Context, userID, documentID string) (bool, error)
	AddFavorite(ctx context.Context, userID, documentID string) error
	RemoveFavorite(ctx context.Context, userID, documentID string) error
	ListFavorites(ctx context.Context, userID string) ([]models.Document, error)
}

type documentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByApprovalTag(ctx context.Context, tag string) (*models.User, error)
	ListDirectors(ctx context.Context, universityID string) ([]models.User, error)
}

type documentUniversityRepository interface {
	FindByApprovalTag(ctx context.Context, tag string) (*models.University, error)
}

type documentApprovalRepository interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
}

type documentGradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
}

type blobStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type outboxEnqueuer interface {
	Notify(ctx context.Context, recipientID string, nType models.NotificationType, title, message, link string)
	Email(ctx context.Context, recipientID string, nType models.NotificationType, subject, body string)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// DocumentService implements upload, browsing, moderation, download and
// favorites for academic documents.
type DocumentService struct {
	docs         documentRepository
	users        documentUserRepository
	universities documentUniversityRepository
	approvals    documentApprovalRepository
	grades       documentGradeRepository
	storage      blobStorage
	signer       *storage.SignedURLSigner
	guard        *Guard
	outbox       outboxEnqueuer
	gamification *GamificationService
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          config.UploadsConfig
	apiPrefix    string
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(
	docs documentRepository,
	users documentUserRepository,
	universities documentUniversityRepository,
	approvals documentApprovalRepository,
	grades documentGradeRepository,
	blobs blobStorage,
	signer *storage.SignedURLSigner,
	guard *Guard,
	outbox outboxEnqueuer,
	gamification *GamificationService,
	cache dashboardInvalidator,
	validate *validator.Validate,
	cfg config.UploadsConfig,
	apiPrefix string,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &DocumentService{
		docs:         docs,
		users:        users,
		universities: universities,
		approvals:    approvals,
		grades:       grades,
		storage:      blobs,
		signer:       signer,
		guard:        guard,
		outbox:       outbox,
		gamification: gamification,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		apiPrefix:    apiPrefix,
	}
}

// Upload stores the blob and metadata, routing the initial review status by
// the uploader's role: professors publish immediately, everyone else starts
// PENDING. An approval tag routes the review to a professor or to the
// directors of a university.
func (s *DocumentService) Upload(ctx context.Context, claims *models.JWTClaims, req dto.UploadDocumentRequest, file io.Reader, filename, mimeType string, size int64) (*models.Document, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds limit of %d bytes", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %s is not accepted", mimeType))
	}

	// Resolve the routing tag before touching the disk so a typo fails fast.
	var tagProfessor *models.User
	var tagUniversity *models.University
	if req.ApprovalTag != "" {
		tagProfessor, tagUniversity, err = s.resolveApprovalTag(ctx, req.ApprovalTag)
		if err != nil {
			return nil, err
		}
	}

	relPath := fmt.Sprintf("%s/%d_%s", actor.ID, time.Now().UTC().UnixNano(), sanitizeUploadName(filename))
	written, err := s.storage.SaveStream(relPath, file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	universityID := req.UniversityID
	if universityID == nil {
		universityID = actor.UniversityID
	}

	doc := &models.Document{
		Title:        req.Title,
		Description:  req.Description,
		FileType:     mimeType,
		FilePath:     relPath,
		SizeBytes:    written,
		UniversityID: universityID,
		Course:       req.Course,
		Subject:      req.Subject,
		AuthorID:     actor.ID,
		Status:       models.StatusPending,
		Tags:         req.Tags,
	}
	if actor.Role == models.RoleProfessor {
		now := time.Now().UTC()
		doc.Status = models.StatusApproved
		doc.ReviewerID = &actor.ID
		doc.ReviewedAt = &now
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(relPath); delErr != nil {
			s.logger.Warn("failed to remove orphaned blob", zap.String("path", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document")
	}

	if doc.Status == models.StatusPending {
		s.routePendingUpload(ctx, actor, doc, req.ApprovalTag, tagProfessor, tagUniversity)
	}

	s.gamification.AwardUpload(ctx, actor.ID)
	s.invalidateDashboards(ctx)

	return doc, nil
}

// Get returns a document and bumps its view counter. Pending and rejected
// documents are only visible to their author and moderators.
func (s *DocumentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(claims, doc); err != nil {
		return nil, err
	}
	if err := s.docs.IncrementViews(ctx, doc.ID); err != nil {
		s.logger.Warn("failed to increment views", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return doc, nil
}

// List browses documents. Callers without moderation rights only see
// APPROVED documents unless they filter on their own uploads.
func (s *DocumentService) List(ctx context.Context, claims *models.JWTClaims, filter models.DocumentFilter) ([]models.Document, int, error) {
	moderator := claims != nil && claims.Role.CanModerateDocuments()
	ownQueue := claims != nil && filter.AuthorID == claims.UserID && filter.AuthorID != ""
	if !moderator && !ownQueue {
		approved := models.StatusApproved
		filter.Status = &approved
	}
	docs, total, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, total, nil
}

// Moderate lands an approve/reject decision on a pending document. Terminal
// documents cannot be re-moderated. A professor approving may attach a 0-20
// grade with private feedback.
func (s *DocumentService) Moderate(ctx context.Context, claims *models.JWTClaims, id string, req dto.ModerateDocumentRequest) (*models.Document, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleProfessor, models.RoleDirector, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid moderation payload")
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "document has already been reviewed")
	}
	if err := s.guard.RequireScope(actor, doc.UniversityID); err != nil {
		return nil, err
	}
	if doc.AuthorID == actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot moderate your own document")
	}

	decision := models.Decision(req.Decision)
	newStatus := decision.Status()
	reviewedAt := time.Now().UTC()

	if err := s.docs.UpdateStatus(ctx, doc.ID, newStatus, actor.ID, reviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Another reviewer landed a decision first.
			return nil, appErrors.Clone(appErrors.ErrFinalized, "document has already been reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}
	doc.Status = newStatus
	doc.ReviewerID = &actor.ID
	doc.ReviewedAt = &reviewedAt

	if newStatus == models.StatusApproved {
		s.gamification.AwardApproval(ctx, doc.AuthorID)
		if req.Grade != nil && actor.Role.CanGrade() {
			grade := &models.Grade{
				DocumentID:      doc.ID,
				StudentID:       doc.AuthorID,
				ProfessorID:     actor.ID,
				Score:           *req.Grade,
				PrivateFeedback: req.Feedback,
			}
			if err := s.grades.Create(ctx, grade); err != nil {
				s.logger.Warn("failed to attach grade to approval", zap.String("document_id", doc.ID), zap.Error(err))
			} else {
				s.outbox.Notify(ctx, doc.AuthorID, models.NotificationTypeGradeReceived,
					"You received a grade",
					fmt.Sprintf("%s graded your document %q.", actor.FullName, doc.Title),
					s.documentLink(doc.ID))
			}
		}
	}

	nType := models.NotificationTypeDocumentApproved
	verb := "approved"
	if newStatus == models.StatusRejected {
		nType = models.NotificationTypeDocumentRejected
		verb = "rejected"
	}
	title := fmt.Sprintf("Your document was %s", verb)
	message := fmt.Sprintf("%q was %s by %s.", doc.Title, verb, actor.FullName)
	s.outbox.Notify(ctx, doc.AuthorID, nType, title, message, s.documentLink(doc.ID))
	s.outbox.Email(ctx, doc.AuthorID, nType, title, message)
	s.invalidateDashboards(ctx)

	return doc, nil
}

// DownloadURL issues a signed, expiring token for the blob.
func (s *DocumentService) DownloadURL(ctx context.Context, claims *models.JWTClaims, id string) (*dto.DownloadLinkResponse, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(claims, doc); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.DownloadLinkResponse{
		URL:       fmt.Sprintf("%s/documents/download/%s", strings.TrimRight(s.apiPrefix, "/"), token),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token, bumps the counter and opens the blob.
func (s *DocumentService) Download(ctx context.Context, token string) (*models.Document, *os.File, error) {
	documentID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match document")
	}
	file, err := s.storage.Open(doc.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	if err := s.docs.IncrementDownloads(ctx, doc.ID); err != nil {
		s.logger.Warn("failed to increment downloads", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return doc, file, nil
}

// Delete removes a document and its blob. Owners and admins only.
func (s *DocumentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return err
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if doc.AuthorID != actor.ID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin may delete a document")
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.storage.Delete(doc.FilePath); err != nil {
		s.logger.Warn("failed to delete blob", zap.String("path", doc.FilePath), zap.Error(err))
	}
	s.invalidateDashboards(ctx)
	return nil
}

// ToggleFavorite flips the caller's favorite mark on a document.
func (s *DocumentService) ToggleFavorite(ctx context.Context, claims *models.JWTClaims, id string) (*dto.FavoriteResponse, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	has, err := s.docs.HasFavorite(ctx, actor.ID, doc.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check favorite")
	}
	if has {
		if err := s.docs.RemoveFavorite(ctx, actor.ID, doc.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove favorite")
		}
		return &dto.FavoriteResponse{DocumentID: doc.ID, Favorited: false}, nil
	}
	if err := s.docs.AddFavorite(ctx, actor.ID, doc.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add favorite")
	}
	return &dto.FavoriteResponse{DocumentID: doc.ID, Favorited: true}, nil
}

// ListFavorites returns the caller's favorited documents.
func (s *DocumentService) ListFavorites(ctx context.Context, claims *models.JWTClaims) ([]models.Document, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListFavorites(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list favorites")
	}
	return docs, nil
}

func (s *DocumentService) load(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

func (s *DocumentService) checkVisibility(claims *models.JWTClaims, doc *models.Document) error {
	if doc.Status == models.StatusApproved {
		return nil
	}
	if claims != nil && (claims.UserID == doc.AuthorID || claims.Role.CanModerateDocuments()) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrNotFound, "document not found")
}

func (s *DocumentService) resolveApprovalTag(ctx context.Context, tag string) (*models.User, *models.University, error) {
	professor, err := s.users.FindByApprovalTag(ctx, tag)
	if err == nil {
		if professor.Role != models.RoleProfessor {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "approval tag does not belong to a professor")
		}
		return professor, nil, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approval tag")
	}

	university, err := s.universities.FindByApprovalTag(ctx, tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown approval tag")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approval tag")
	}
	return nil, university, nil
}

func (s *DocumentService) routePendingUpload(ctx context.Context, actor *models.User, doc *models.Document, tag string, professor *models.User, university *models.University) {
	title := "Document pending review"
	link := s.documentLink(doc.ID)

	switch {
	case professor != nil:
		request := &models.ApprovalRequest{
			Kind:        models.ApprovalKindDocumentReview,
			RequesterID: actor.ID,
			ApproverID:  &professor.ID,
			DocumentID:  &doc.ID,
			TagUsed:     tag,
			Status:      models.StatusPending,
		}
		if err := s.approvals.Create(ctx, request); err != nil {
			s.logger.Warn("failed to open review request", zap.String("document_id", doc.ID), zap.Error(err))
		}
		s.outbox.Notify(ctx, professor.ID, models.NotificationTypeDocumentPending, title,
			fmt.Sprintf("%s submitted %q for your review.", actor.FullName, doc.Title), link)
		s.outbox.Notify(ctx, actor.ID, models.NotificationTypeDocumentPending, "Document submitted",
			fmt.Sprintf("%q was routed to %s for review.", doc.Title, professor.FullName), link)
	case university != nil:
		directors, err := s.users.ListDirectors(ctx, university.ID)
		if err != nil {
			s.logger.Warn("failed to list directors for review routing", zap.String("university_id", university.ID), zap.Error(err))
			return
		}
		for _, director := range directors {
			s.outbox.Notify(ctx, director.ID, models.NotificationTypeDocumentPending, title,
				fmt.Sprintf("%s submitted %q for review at %s.", actor.FullName, doc.Title, university.Name), link)
		}
	}
}

func (s *DocumentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DocumentService) documentLink(id string) string {
	return fmt.Sprintf("%s/documents/%s", strings.TrimRight(s.apiPrefix, "/"), id)
}

func (s *DocumentService) mimeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

func sanitizeUploadName(raw string) string {
	base := filepath.Base(raw)
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	cleaned := replacer.Replace(base)
	if len(cleaned) > 120 {
		cleaned = cleaned[len(cleaned)-120:]
	}
	if cleaned == "" || cleaned == "." {
		cleaned = "upload.bin"
	}
	return cleaned
}
