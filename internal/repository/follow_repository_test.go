package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowCreateIgnoresDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO follow_edges (follower_id, followed_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (follower_id, followed_id) DO NOTHING")).
		WithArgs("u1", "u2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM follow_edges WHERE follower_id = $1 AND followed_id = $2")).
		WithArgs("u1", "u2").
		WillReturnRows(rows)

	exists, err := repo.Exists(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFollowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM follow_edges WHERE follower_id = $1 AND followed_id = $2")).
		WithArgs("u1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
