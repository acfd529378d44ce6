package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/models"
)

func TestLevelStartsAtOne(t *testing.T) {
	svc := testGamification(newFakeUserRepo())
	assert.Equal(t, 1, svc.Level(0))
	assert.Equal(t, 1, svc.Level(99))
	assert.Equal(t, 2, svc.Level(100))
	assert.Equal(t, 6, svc.Level(500))
	assert.Equal(t, 1, svc.Level(-10))
}

func TestBadgesDerivedFromStats(t *testing.T) {
	svc := testGamification(newFakeUserRepo())

	assert.Empty(t, svc.Badges(models.UserStats{}, 0))

	badges := svc.Badges(models.UserStats{Uploads: 12, Approved: 10, Followers: 30}, 600)
	assert.ElementsMatch(t, []string{"FIRST_UPLOAD", "TRUSTED_AUTHOR", "COMMUNITY_FAVORITE", "VETERAN"}, badges)
}

func TestAwardFailureIsSwallowed(t *testing.T) {
	repo := newFakeUserRepo()
	repo.err = errors.New("db down")
	svc := testGamification(repo)

	// Awards are side effects; they log and never propagate the failure.
	svc.AwardUpload(context.Background(), "user-1")
}

func TestLeaderboardDerivesLevels(t *testing.T) {
	user := testUser("user-1", models.RoleStudent)
	user.Points = 250
	repo := newFakeUserRepo(user)
	svc := testGamification(repo)

	entries, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 250, entries[0].Points)
	assert.Equal(t, 3, entries[0].Level)
}
