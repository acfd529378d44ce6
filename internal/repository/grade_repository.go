package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// GradeRepository provides database access for professor grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new instance of GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create inserts a grade row.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, document_id, student_id, professor_id, score, private_feedback, created_at) VALUES (:id, :document_id, :student_id, :professor_id, :score, :private_feedback, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// ListByStudent returns the student's grade history, newest first.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	const query = `SELECT id, document_id, student_id, professor_id, score, private_feedback, created_at FROM grades WHERE student_id = $1 ORDER BY created_at DESC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}

// ListByProfessor returns the grades a professor issued, newest first.
func (r *GradeRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Grade, error) {
	const query = `SELECT id, document_id, student_id, professor_id, score, private_feedback, created_at FROM grades WHERE professor_id = $1 ORDER BY created_at DESC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, professorID); err != nil {
		return nil, fmt.Errorf("list grades by professor: %w", err)
	}
	return grades, nil
}

// CountByProfessor returns how many grades a professor issued.
func (r *GradeRepository) CountByProfessor(ctx context.Context, professorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM grades WHERE professor_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, professorID); err != nil {
		return 0, fmt.Errorf("count grades by professor: %w", err)
	}
	return count, nil
}
