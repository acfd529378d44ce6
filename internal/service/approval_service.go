package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type approvalRepository interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
	FindByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	HasPending(ctx context.Context, requesterID string, kind models.ApprovalRequestKind) (bool, error)
	Decide(ctx context.Context, id string, status models.ReviewStatus, decidedBy string, decidedAt time.Time) error
	List(ctx context.Context, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error)
}

type approvalUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetRole(ctx context.Context, id string, role models.UserRole, approved bool) error
	SetUniversity(ctx context.Context, id, universityID string) error
	ListDirectors(ctx context.Context, universityID string) ([]models.User, error)
}

type approvalUniversityRepository interface {
	FindByID(ctx context.Context, id string) (*models.University, error)
}

type approvalDocumentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, reviewedAt time.Time) error
}

// ApprovalService runs the three approval workflows: role elevation,
// university association and tag-routed document review.
type ApprovalService struct {
	approvals    approvalRepository
	users        approvalUserRepository
	universities approvalUniversityRepository
	docs         approvalDocumentRepository
	guard        *Guard
	outbox       outboxEnqueuer
	gamification *GamificationService
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(
	approvals approvalRepository,
	users approvalUserRepository,
	universities approvalUniversityRepository,
	docs approvalDocumentRepository,
	guard *Guard,
	outbox outboxEnqueuer,
	gamification *GamificationService,
	cache dashboardInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApprovalService{
		approvals:    approvals,
		users:        users,
		universities: universities,
		docs:         docs,
		guard:        guard,
		outbox:       outbox,
		gamification: gamification,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// Create opens a role-elevation or university-association request. Document
// review requests are created internally by tag-routed uploads.
func (s *ApprovalService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateApprovalRequest) (*models.ApprovalRequest, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval request payload")
	}

	kind := models.ApprovalRequestKind(req.Kind)
	pending, err := s.approvals.HasPending(ctx, actor.ID, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a request of this kind is already pending")
	}

	request := &models.ApprovalRequest{
		Kind:        kind,
		RequesterID: actor.ID,
		Message:     req.Message,
		Status:      models.StatusPending,
	}

	switch kind {
	case models.ApprovalKindRoleElevation:
		if req.RequestedRole == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "requested_role is required for role elevation")
		}
		requested := models.UserRole(*req.RequestedRole)
		if err := validateElevation(actor.Role, requested); err != nil {
			return nil, err
		}
		request.RequestedRole = &requested
		request.UniversityID = actor.UniversityID
	case models.ApprovalKindUniversityAssociation:
		if req.UniversityID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "university_id is required for association requests")
		}
		university, err := s.universities.FindByID(ctx, *req.UniversityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load university")
		}
		request.UniversityID = &university.ID
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported request kind")
	}

	if err := s.approvals.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval request")
	}

	if kind == models.ApprovalKindUniversityAssociation && request.UniversityID != nil {
		directors, err := s.users.ListDirectors(ctx, *request.UniversityID)
		if err != nil {
			s.logger.Warn("failed to list directors for association request", zap.Error(err))
		} else {
			for _, director := range directors {
				s.outbox.Notify(ctx, director.ID, models.NotificationTypeDocumentPending,
					"Association request",
					fmt.Sprintf("%s requested to join your university.", actor.FullName),
					fmt.Sprintf("/approvals/%s", request.ID))
			}
		}
	}

	return request, nil
}

// Decide resolves a pending request. The moderator depends on the kind:
// admins for elevations, the addressed director for associations, the
// addressed professor (or an admin) for document reviews.
func (s *ApprovalService) Decide(ctx context.Context, claims *models.JWTClaims, id string, req dto.DecideApprovalRequest) (*models.ApprovalRequest, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleProfessor, models.RoleDirector, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	request, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "request has already been decided")
	}

	if err := s.authorizeDecision(actor, request); err != nil {
		return nil, err
	}

	decision := models.Decision(req.Decision)
	newStatus := decision.Status()
	decidedAt := time.Now().UTC()

	if err := s.approvals.Decide(ctx, request.ID, newStatus, actor.ID, decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrFinalized, "request has already been decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide approval request")
	}
	request.Status = newStatus
	request.DecidedBy = &actor.ID
	request.DecidedAt = &decidedAt

	if newStatus == models.StatusApproved {
		s.applyApproval(ctx, actor, request)
	}

	nType := models.NotificationTypeRequestApproved
	verb := "approved"
	if newStatus == models.StatusRejected {
		nType = models.NotificationTypeRequestRejected
		verb = "rejected"
	}
	title := fmt.Sprintf("Your request was %s", verb)
	message := fmt.Sprintf("Your %s request was %s.", kindLabel(request.Kind), verb)
	s.outbox.Notify(ctx, request.RequesterID, nType, title, message, fmt.Sprintf("/approvals/%s", request.ID))
	s.outbox.Email(ctx, request.RequesterID, nType, title, message)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}

	return request, nil
}

// List returns approval requests the caller may see: admins see everything,
// directors their university's queue, professors requests addressed to them,
// everyone their own.
func (s *ApprovalService) List(ctx context.Context, claims *models.JWTClaims, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, 0, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		// unrestricted
	case models.RoleDirector:
		if actor.UniversityID == nil {
			filter.RequesterID = actor.ID
		} else {
			filter.UniversityID = *actor.UniversityID
		}
	case models.RoleProfessor:
		filter.ApproverID = actor.ID
	default:
		filter.RequesterID = actor.ID
	}

	requests, total, err := s.approvals.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval requests")
	}
	return requests, total, nil
}

func (s *ApprovalService) authorizeDecision(actor *models.User, request *models.ApprovalRequest) error {
	switch request.Kind {
	case models.ApprovalKindRoleElevation:
		if actor.Role != models.RoleAdmin {
			return appErrors.Clone(appErrors.ErrForbidden, "only admins decide role elevations")
		}
	case models.ApprovalKindUniversityAssociation:
		if actor.Role == models.RoleAdmin {
			return nil
		}
		if actor.Role != models.RoleDirector {
			return appErrors.Clone(appErrors.ErrForbidden, "only directors decide association requests")
		}
		return s.guard.RequireScope(actor, request.UniversityID)
	case models.ApprovalKindDocumentReview:
		if actor.Role == models.RoleAdmin {
			return nil
		}
		if request.ApproverID == nil || *request.ApproverID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "request is addressed to another reviewer")
		}
	}
	return nil
}

func (s *ApprovalService) applyApproval(ctx context.Context, actor *models.User, request *models.ApprovalRequest) {
	switch request.Kind {
	case models.ApprovalKindRoleElevation:
		if request.RequestedRole == nil {
			return
		}
		if err := s.users.SetRole(ctx, request.RequesterID, *request.RequestedRole, true); err != nil {
			s.logger.Error("failed to apply role elevation", zap.String("request_id", request.ID), zap.Error(err))
		}
	case models.ApprovalKindUniversityAssociation:
		if request.UniversityID == nil {
			return
		}
		if err := s.users.SetUniversity(ctx, request.RequesterID, *request.UniversityID); err != nil {
			s.logger.Error("failed to apply university association", zap.String("request_id", request.ID), zap.Error(err))
		}
	case models.ApprovalKindDocumentReview:
		if request.DocumentID == nil {
			return
		}
		reviewedAt := time.Now().UTC()
		if err := s.docs.UpdateStatus(ctx, *request.DocumentID, models.StatusApproved, actor.ID, reviewedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Document was already reviewed through the moderation endpoint.
				return
			}
			s.logger.Error("failed to approve reviewed document", zap.String("request_id", request.ID), zap.Error(err))
			return
		}
		s.gamification.AwardApproval(ctx, request.RequesterID)
	}
}

func validateElevation(current, requested models.UserRole) error {
	switch requested {
	case models.RoleProfessor:
		if current == models.RoleOrdinary || current == models.RoleStudent {
			return nil
		}
	case models.RoleDirector:
		if current == models.RoleProfessor {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot request elevation from %s to %s", current, requested))
}

func kindLabel(kind models.ApprovalRequestKind) string {
	switch kind {
	case models.ApprovalKindRoleElevation:
		return "role elevation"
	case models.ApprovalKindUniversityAssociation:
		return "university association"
	case models.ApprovalKindDocumentReview:
		return "document review"
	}
	return "approval"
}
