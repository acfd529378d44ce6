package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.Comment, error)
	React(ctx context.Context, id string, like bool) error
	Delete(ctx context.Context, id string) error
}

// CommentService manages the one-level comment threads under documents.
type CommentService struct {
	comments  commentRepository
	docs      ratingDocumentRepository
	guard     *Guard
	outbox    outboxEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService.
func NewCommentService(comments commentRepository, docs ratingDocumentRepository, guard *Guard, outbox outboxEnqueuer, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{comments: comments, docs: docs, guard: guard, outbox: outbox, validator: validate, logger: logger}
}

// Create adds a comment, optionally replying to a top-level comment on the
// same document. Replies to replies are rejected to keep threads one level
// deep.
func (s *CommentService) Create(ctx context.Context, claims *models.JWTClaims, documentID string, req dto.CreateCommentRequest) (*models.Comment, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}

	if req.ParentCommentID != nil {
		parent, err := s.comments.FindByID(ctx, *req.ParentCommentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "parent comment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent comment")
		}
		if parent.DocumentID != doc.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment belongs to another document")
		}
		if parent.ParentCommentID != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "replies to replies are not allowed")
		}
	}

	comment := &models.Comment{
		DocumentID:      doc.ID,
		AuthorID:        actor.ID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save comment")
	}

	if doc.AuthorID != actor.ID {
		s.outbox.Notify(ctx, doc.AuthorID, models.NotificationTypeNewComment,
			"New comment on your document",
			fmt.Sprintf("%s commented on %q.", actor.FullName, doc.Title),
			fmt.Sprintf("/documents/%s", doc.ID))
	}

	return comment, nil
}

// List returns the comments of a document in thread order.
func (s *CommentService) List(ctx context.Context, documentID string) ([]models.Comment, error) {
	if _, err := s.docs.FindByID(ctx, documentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	comments, err := s.comments.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// React applies a like or dislike to a comment.
func (s *CommentService) React(ctx context.Context, claims *models.JWTClaims, commentID string, req dto.ReactCommentRequest) error {
	if _, err := s.guard.Require(ctx, claims); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reaction payload")
	}
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if err := s.comments.React(ctx, commentID, req.Reaction == "LIKE"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record reaction")
	}
	return nil
}

// Delete removes a comment and its replies. Authors and admins only.
func (s *CommentService) Delete(ctx context.Context, claims *models.JWTClaims, commentID string) error {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return err
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if comment.AuthorID != actor.ID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin may delete a comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}
