package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/models"
)

func documentRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "file_type", "file_path", "size_bytes", "university_id", "course", "subject", "author_id", "status", "reviewer_id", "reviewed_at", "downloads", "views", "tags", "created_at", "updated_at"}).
		AddRow("d1", "Calculus Notes", "notes", "pdf", "docs/d1.pdf", int64(1024), "uni1", "Mathematics", "Calculus", "u1", string(models.StatusPending), nil, nil, 0, 0, pq.StringArray{"calculus"}, now, now)
}

func TestDocumentFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE id = $1 LIMIT 1")).
		WithArgs("d1").
		WillReturnRows(documentRows(time.Now()))

	doc, err := repo.FindByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Calculus Notes", doc.Title)
	assert.Equal(t, models.StatusPending, doc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	reviewedAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2, reviewer_id = $3, reviewed_at = $4, updated_at = $4 WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("d1", models.StatusApproved, "prof1", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "d1", models.StatusApproved, "prof1", reviewedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpdateStatusAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	reviewedAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("d1", models.StatusRejected, "prof1", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "d1", models.StatusRejected, "prof1", reviewedAt)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	status := models.StatusApproved
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE 1=1 AND university_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("uni1", status).
		WillReturnRows(documentRows(time.Now()))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE 1=1 AND university_id = $1 AND status = $2")).
		WithArgs("uni1", status).
		WillReturnRows(countRows)

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{UniversityID: "uni1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentListByTag(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE 1=1 AND $1 = ANY(tags) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("calculus").
		WillReturnRows(documentRows(time.Now()))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE 1=1 AND $1 = ANY(tags)")).
		WithArgs("calculus").
		WillReturnRows(countRows)

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{Tag: "calculus"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavorite(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO favorites").
		WithArgs("u1", "d1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AddFavorite(context.Background(), "u1", "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
