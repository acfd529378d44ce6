package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

func newUserFixture(users *fakeUserRepo, universities *fakeUniversityRepo) *UserService {
	if universities == nil {
		universities = newFakeUniversityRepo()
	}
	return NewUserService(users, universities, NewGuard(users, nil), testGamification(users), validator.New(), nil)
}

func TestProfileIncludesGamification(t *testing.T) {
	user := testUser("student-1", models.RoleStudent)
	user.Points = 230
	users := newFakeUserRepo(user)
	users.stats[user.ID] = models.UserStats{Uploads: 3, Approved: 1, Followers: 2, Following: 5}
	svc := newUserFixture(users, nil)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Level)
	assert.Contains(t, profile.Badges, "FIRST_UPLOAD")
	assert.Equal(t, 2, profile.Stats.Followers)
}

func TestProfileOfInactiveUserHidden(t *testing.T) {
	user := testUser("student-1", models.RoleStudent)
	user.Active = false
	users := newFakeUserRepo(user)
	svc := newUserFixture(users, nil)

	_, err := svc.Profile(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegisterApprovalTagProfessorOnly(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(student, professor)
	svc := newUserFixture(users, nil)

	err := svc.RegisterApprovalTag(context.Background(), claimsFor(student), dto.RegisterApprovalTagRequest{Tag: "my-tag"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.RegisterApprovalTag(context.Background(), claimsFor(professor), dto.RegisterApprovalTagRequest{Tag: "my-tag"}))
	updated, err := users.FindByID(context.Background(), professor.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ApprovalTag)
	assert.Equal(t, "my-tag", *updated.ApprovalTag)
}

func TestRegisterApprovalTagConflictsWithUniversity(t *testing.T) {
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(professor)
	tag := "uni-tag"
	universities := newFakeUniversityRepo(&models.University{ID: "uni-1", Name: "U", Acronym: "U", ApprovalTag: &tag})
	svc := newUserFixture(users, universities)

	err := svc.RegisterApprovalTag(context.Background(), claimsFor(professor), dto.RegisterApprovalTagRequest{Tag: tag})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterApprovalTagIdempotentForOwner(t *testing.T) {
	tag := "prof-tag"
	professor := testUser("prof-1", models.RoleProfessor)
	professor.ApprovalTag = &tag
	users := newFakeUserRepo(professor)
	svc := newUserFixture(users, nil)

	require.NoError(t, svc.RegisterApprovalTag(context.Background(), claimsFor(professor), dto.RegisterApprovalTagRequest{Tag: tag}))
}

func TestDeactivateSelfRejected(t *testing.T) {
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(admin)
	svc := newUserFixture(users, nil)

	err := svc.Deactivate(context.Background(), claimsFor(admin), admin.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeactivateSoftDeletes(t *testing.T) {
	admin := testUser("admin-1", models.RoleAdmin)
	target := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(admin, target)
	svc := newUserFixture(users, nil)

	require.NoError(t, svc.Deactivate(context.Background(), claimsFor(admin), target.ID))
	deactivated, err := users.FindByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
}

func TestAdminUpdateChangesRole(t *testing.T) {
	admin := testUser("admin-1", models.RoleAdmin)
	target := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(admin, target)
	svc := newUserFixture(users, nil)

	updated, err := svc.AdminUpdate(context.Background(), claimsFor(admin), target.ID, dto.AdminUpdateUserRequest{
		FullName: "Promoted User",
		Role:     "PROFESSOR",
		Approved: true,
		Active:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleProfessor, updated.Role)
	assert.Equal(t, "Promoted User", updated.FullName)
}

func TestListUsersAdminOnly(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	svc := newUserFixture(users, nil)

	_, _, err := svc.List(context.Background(), claimsFor(student), models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
