package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[string]bool
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[string]bool)}
}

func (f *fakeFollowRepo) key(followerID, followedID string) string {
	return followerID + "->" + followedID
}

func (f *fakeFollowRepo) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[f.key(followerID, followedID)], nil
}

func (f *fakeFollowRepo) Create(ctx context.Context, followerID, followedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[f.key(followerID, followedID)] = true
	return nil
}

func (f *fakeFollowRepo) Delete(ctx context.Context, followerID, followedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, f.key(followerID, followedID))
	return nil
}

func (f *fakeFollowRepo) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	return nil, nil
}

func (f *fakeFollowRepo) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	return nil, nil
}

func (f *fakeFollowRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key, ok := range f.edges {
		if ok && key[len(key)-len(userID):] == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFollowRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key, ok := range f.edges {
		if ok && key[:len(userID)] == userID {
			count++
		}
	}
	return count, nil
}

func newFollowFixture(users *fakeUserRepo) (*FollowService, *fakeFollowRepo, *fakeOutbox) {
	follows := newFakeFollowRepo()
	outbox := &fakeOutbox{}
	svc := NewFollowService(follows, users, NewGuard(users, nil), outbox, testGamification(users), nil)
	return svc, follows, outbox
}

func TestFollowToggleCreatesThenRemoves(t *testing.T) {
	follower := testUser("student-1", models.RoleStudent)
	target := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(follower, target)
	svc, follows, outbox := newFollowFixture(users)

	resp, err := svc.Toggle(context.Background(), claimsFor(follower), target.ID)
	require.NoError(t, err)
	assert.True(t, resp.Following)
	assert.Equal(t, 2, users.awarded[target.ID])
	assert.Contains(t, outbox.notifiedTypes(target.ID), models.NotificationTypeNewFollower)

	resp, err = svc.Toggle(context.Background(), claimsFor(follower), target.ID)
	require.NoError(t, err)
	assert.False(t, resp.Following)

	exists, err := follows.Exists(context.Background(), follower.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	// Unfollowing never claws back the award.
	assert.Equal(t, 2, users.awarded[target.ID])
}

func TestFollowSelfRejected(t *testing.T) {
	user := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(user)
	svc, _, _ := newFollowFixture(users)

	_, err := svc.Toggle(context.Background(), claimsFor(user), user.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFollowInactiveTargetHidden(t *testing.T) {
	follower := testUser("student-1", models.RoleStudent)
	target := testUser("student-2", models.RoleStudent)
	target.Active = false
	users := newFakeUserRepo(follower, target)
	svc, _, _ := newFollowFixture(users)

	_, err := svc.Toggle(context.Background(), claimsFor(follower), target.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
