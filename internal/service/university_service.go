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

type universityRepository interface {
	FindByID(ctx context.Context, id string) (*models.University, error)
	FindByApprovalTag(ctx context.Context, tag string) (*models.University, error)
	List(ctx context.Context) ([]models.University, error)
	Create(ctx context.Context, uni *models.University) error
	Update(ctx context.Context, uni *models.University) error
	Delete(ctx context.Context, id string) error
	ListCourses(ctx context.Context, universityID string) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
}

type universityUserRepository interface {
	FindByApprovalTag(ctx context.Context, tag string) (*models.User, error)
	ListDirectors(ctx context.Context, universityID string) ([]models.User, error)
}

// UniversityService manages the university registry and course catalogs.
type UniversityService struct {
	universities universityRepository
	users        universityUserRepository
	guard        *Guard
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewUniversityService constructs a UniversityService.
func NewUniversityService(universities universityRepository, users universityUserRepository, guard *Guard, validate *validator.Validate, logger *zap.Logger) *UniversityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UniversityService{universities: universities, users: users, guard: guard, validator: validate, logger: logger}
}

// List returns all universities.
func (s *UniversityService) List(ctx context.Context) ([]models.University, error) {
	universities, err := s.universities.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list universities")
	}
	return universities, nil
}

// Get returns one university.
func (s *UniversityService) Get(ctx context.Context, id string) (*models.University, error) {
	university, err := s.universities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load university")
	}
	return university, nil
}

// Create registers a university. Admin only. Approval tags must be unique
// across users and universities.
func (s *UniversityService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateUniversityRequest) (*models.University, error) {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid university payload")
	}
	if req.ApprovalTag != nil {
		if err := s.ensureTagFree(ctx, *req.ApprovalTag); err != nil {
			return nil, err
		}
	}

	university := &models.University{
		Name:        req.Name,
		Acronym:     req.Acronym,
		City:        req.City,
		ApprovalTag: req.ApprovalTag,
	}
	if err := s.universities.Create(ctx, university); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create university")
	}
	return university, nil
}

// Update modifies a university. Admin only.
func (s *UniversityService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateUniversityRequest) (*models.University, error) {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid university payload")
	}

	university, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ApprovalTag != nil && (university.ApprovalTag == nil || *university.ApprovalTag != *req.ApprovalTag) {
		if err := s.ensureTagFree(ctx, *req.ApprovalTag); err != nil {
			return nil, err
		}
	}

	university.Name = req.Name
	university.Acronym = req.Acronym
	university.City = req.City
	university.ApprovalTag = req.ApprovalTag

	if err := s.universities.Update(ctx, university); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update university")
	}
	return university, nil
}

// Delete removes a university. Admin only.
func (s *UniversityService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if _, err := s.guard.Require(ctx, claims, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.universities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete university")
	}
	return nil
}

// Directors lists the active directors of a university.
func (s *UniversityService) Directors(ctx context.Context, id string) ([]models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	directors, err := s.users.ListDirectors(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list directors")
	}
	return directors, nil
}

// Courses returns the course catalog of a university.
func (s *UniversityService) Courses(ctx context.Context, id string) ([]models.Course, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	courses, err := s.universities.ListCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// AddCourse adds a catalog entry. Admins and the university's director.
func (s *UniversityService) AddCourse(ctx context.Context, claims *models.JWTClaims, universityID string, req dto.CreateCourseRequest) (*models.Course, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleAdmin, models.RoleDirector)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	university, err := s.Get(ctx, universityID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireScope(actor, &university.ID); err != nil {
		return nil, err
	}

	course := &models.Course{UniversityID: university.ID, Name: req.Name}
	if err := s.universities.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// RemoveCourse deletes a catalog entry. Admins and the university's director.
func (s *UniversityService) RemoveCourse(ctx context.Context, claims *models.JWTClaims, universityID, courseID string) error {
	actor, err := s.guard.Require(ctx, claims, models.RoleAdmin, models.RoleDirector)
	if err != nil {
		return err
	}
	university, err := s.Get(ctx, universityID)
	if err != nil {
		return err
	}
	if err := s.guard.RequireScope(actor, &university.ID); err != nil {
		return err
	}
	if err := s.universities.DeleteCourse(ctx, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *UniversityService) ensureTagFree(ctx context.Context, tag string) error {
	if _, err := s.users.FindByApprovalTag(ctx, tag); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "approval tag is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approval tag")
	}
	if _, err := s.universities.FindByApprovalTag(ctx, tag); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "approval tag is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approval tag")
	}
	return nil
}
