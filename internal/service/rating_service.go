package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type ratingRepository interface {
	Upsert(ctx context.Context, rating *models.Rating) error
	ListByDocument(ctx context.Context, documentID string) ([]models.Rating, error)
}

type ratingDocumentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
}

// RatingService records one score per (document, user) and computes the
// on-read average.
type RatingService struct {
	ratings      ratingRepository
	docs         ratingDocumentRepository
	guard        *Guard
	gamification *GamificationService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRatingService constructs a RatingService.
func NewRatingService(ratings ratingRepository, docs ratingDocumentRepository, guard *Guard, gamification *GamificationService, validate *validator.Validate, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RatingService{ratings: ratings, docs: docs, guard: guard, gamification: gamification, validator: validate, logger: logger}
}

// Rate upserts the caller's score for a document. Authors cannot rate their
// own uploads; the author's rating award only fires on the first score from
// each user.
func (s *RatingService) Rate(ctx context.Context, claims *models.JWTClaims, documentID string, req dto.RateDocumentRequest) (*models.RatingSummary, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	if doc.AuthorID == actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot rate your own document")
	}
	if doc.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}

	existing, err := s.ratings.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}
	firstRating := true
	for _, rating := range existing {
		if rating.UserID == actor.ID {
			firstRating = false
			break
		}
	}

	if err := s.ratings.Upsert(ctx, &models.Rating{DocumentID: doc.ID, UserID: actor.ID, Score: req.Score}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rating")
	}
	if firstRating {
		s.gamification.AwardRating(ctx, doc.AuthorID)
	}

	return s.Summary(ctx, doc.ID)
}

// Summary computes the average and count for a document. Zero ratings yield
// {0, 0} rather than a division by zero.
func (s *RatingService) Summary(ctx context.Context, documentID string) (*models.RatingSummary, error) {
	ratings, err := s.ratings.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}
	if len(ratings) == 0 {
		return &models.RatingSummary{Average: 0, Count: 0}, nil
	}
	var sum int
	for _, rating := range ratings {
		sum += rating.Score
	}
	return &models.RatingSummary{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}, nil
}
