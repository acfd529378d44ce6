package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByApprovalTag(ctx context.Context, tag string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	SetApprovalTag(ctx context.Context, id, tag string) error
	Stats(ctx context.Context, id string) (*models.UserStats, error)
}

// UserService covers admin account management and public profiles.
type UserService struct {
	users        userRepository
	universities universityRepository
	guard        *Guard
	gamification *GamificationService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users userRepository, universities universityRepository, guard *Guard, gamification *GamificationService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, universities: universities, guard: guard, gamification: gamification, validator: validate, logger: logger}
}

// List returns accounts matching the filter. Admin only.
func (s *UserService) List(ctx context.Context, claims *models.JWTClaims, filter models.UserFilter) ([]models.User, int, error) {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Profile assembles the public profile with stats and gamification data.
func (s *UserService) Profile(ctx context.Context, id string) (*dto.ProfileResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	stats, err := s.users.Stats(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile stats")
	}
	return &dto.ProfileResponse{
		User:   *user,
		Stats:  *stats,
		Level:  s.gamification.Level(user.Points),
		Badges: s.gamification.Badges(*stats, user.Points),
	}, nil
}

// UpdateProfile edits the caller's own name and university.
func (s *UserService) UpdateProfile(ctx context.Context, claims *models.JWTClaims, req dto.UpdateProfileRequest) (*models.User, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if req.UniversityID != nil {
		if _, err := s.universities.FindByID(ctx, *req.UniversityID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load university")
		}
	}

	actor.FullName = req.FullName
	actor.UniversityID = req.UniversityID
	if err := s.users.Update(ctx, actor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return actor, nil
}

// AdminUpdate edits any account. Admin only.
func (s *UserService) AdminUpdate(ctx context.Context, claims *models.JWTClaims, id string, req dto.AdminUpdateUserRequest) (*models.User, error) {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	user.Role = models.UserRole(req.Role)
	user.UniversityID = req.UniversityID
	user.Approved = req.Approved
	user.Active = req.Active

	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Deactivate soft-deletes an account. Admin only.
func (s *UserService) Deactivate(ctx context.Context, claims *models.JWTClaims, id string) error {
	actor, err := s.guard.Require(ctx, claims, models.RoleAdmin)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	return nil
}

// RegisterApprovalTag claims a unique routing tag for a professor.
func (s *UserService) RegisterApprovalTag(ctx context.Context, claims *models.JWTClaims, req dto.RegisterApprovalTagRequest) error {
	actor, err := s.guard.Require(ctx, claims, models.RoleProfessor)
	if err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}

	if existing, err := s.users.FindByApprovalTag(ctx, req.Tag); err == nil {
		if existing.ID == actor.ID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrConflict, "approval tag is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approval tag")
	}
	if _, err := s.universities.FindByApprovalTag(ctx, req.Tag); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "approval tag is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approval tag")
	}

	if err := s.users.SetApprovalTag(ctx, actor.ID, req.Tag); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register approval tag")
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
