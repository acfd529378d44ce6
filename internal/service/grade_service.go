package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type gradeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.Grade, error)
}

// GradeService exposes the professor-private grade history. Grades are
// created by document moderation; this service only reads them back for the
// two parties involved.
type GradeService struct {
	grades gradeRepository
	guard  *Guard
	logger *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(grades gradeRepository, guard *Guard, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, guard: guard, logger: logger}
}

// ListMine returns the grades the caller received on their documents.
func (s *GradeService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.Grade, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListIssued returns the grades a professor handed out.
func (s *GradeService) ListIssued(ctx context.Context, claims *models.JWTClaims) ([]models.Grade, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleProfessor)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByProfessor(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issued grades")
	}
	return grades, nil
}
