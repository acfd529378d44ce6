package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

const universityColumns = `id, name, acronym, city, approval_tag, created_at, updated_at`

// UniversityRepository provides database access for universities and courses.
type UniversityRepository struct {
	db *sqlx.DB
}

// NewUniversityRepository creates a new instance of UniversityRepository.
func NewUniversityRepository(db *sqlx.DB) *UniversityRepository {
	return &UniversityRepository{db: db}
}

// FindByID returns a university by identifier.
func (r *UniversityRepository) FindByID(ctx context.Context, id string) (*models.University, error) {
	query := fmt.Sprintf(`SELECT %s FROM universities WHERE id = $1 LIMIT 1`, universityColumns)
	var uni models.University
	if err := r.db.GetContext(ctx, &uni, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find university by id: %w", err)
	}
	return &uni, nil
}

// FindByApprovalTag resolves a university from its routing tag.
func (r *UniversityRepository) FindByApprovalTag(ctx context.Context, tag string) (*models.University, error) {
	query := fmt.Sprintf(`SELECT %s FROM universities WHERE approval_tag = $1 LIMIT 1`, universityColumns)
	var uni models.University
	if err := r.db.GetContext(ctx, &uni, query, tag); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find university by approval tag: %w", err)
	}
	return &uni, nil
}

// List returns all universities ordered by name.
func (r *UniversityRepository) List(ctx context.Context) ([]models.University, error) {
	query := fmt.Sprintf(`SELECT %s FROM universities ORDER BY name ASC`, universityColumns)
	var unis []models.University
	if err := r.db.SelectContext(ctx, &unis, query); err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	return unis, nil
}

// Count returns the number of universities.
func (r *UniversityRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM universities`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count universities: %w", err)
	}
	return count, nil
}

// Create inserts a new university.
func (r *UniversityRepository) Create(ctx context.Context, uni *models.University) error {
	if uni.ID == "" {
		uni.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if uni.CreatedAt.IsZero() {
		uni.CreatedAt = now
	}
	uni.UpdatedAt = now
	const query = `INSERT INTO universities (id, name, acronym, city, approval_tag, created_at, updated_at) VALUES (:id, :name, :acronym, :city, :approval_tag, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, uni); err != nil {
		return fmt.Errorf("create university: %w", err)
	}
	return nil
}

// Update modifies an existing university.
func (r *UniversityRepository) Update(ctx context.Context, uni *models.University) error {
	uni.UpdatedAt = time.Now().UTC()
	const query = `UPDATE universities SET name = :name, acronym = :acronym, city = :city, approval_tag = :approval_tag, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, uni); err != nil {
		return fmt.Errorf("update university: %w", err)
	}
	return nil
}

// SetApprovalTag assigns the routing tag, unset when tag is nil.
func (r *UniversityRepository) SetApprovalTag(ctx context.Context, id string, tag *string) error {
	const query = `UPDATE universities SET approval_tag = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tag, time.Now().UTC()); err != nil {
		return fmt.Errorf("set university approval tag: %w", err)
	}
	return nil
}

// Delete removes a university.
func (r *UniversityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM universities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete university: %w", err)
	}
	return nil
}

// ListCourses returns a university's course catalog ordered by name.
func (r *UniversityRepository) ListCourses(ctx context.Context, universityID string) ([]models.Course, error) {
	const query = `SELECT id, university_id, name, created_at FROM courses WHERE university_id = $1 ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, universityID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CountCourses returns the size of a university's catalog.
func (r *UniversityRepository) CountCourses(ctx context.Context, universityID string) (int, error) {
	const query = `SELECT COUNT(*) FROM courses WHERE university_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, universityID); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// CreateCourse inserts a course into the catalog.
func (r *UniversityRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, university_id, name, created_at) VALUES (:id, :university_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// DeleteCourse removes a course from the catalog.
func (r *UniversityRepository) DeleteCourse(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
