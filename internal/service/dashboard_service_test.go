package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string][]byte)
	return nil
}

type fakeDashboardRepo struct {
	totalUsers        int
	usersByRole       map[string]int
	totalDocuments    int
	pendingDocuments  int
	pendingElevations int
	documentsByAuthor map[string]int
	documentsByStatus map[string]int
	recent            []models.Document
	pending           []models.Document

	countUserCalls int
}

func (f *fakeDashboardRepo) CountUsers(ctx context.Context) (int, error) {
	f.countUserCalls++
	return f.totalUsers, nil
}

func (f *fakeDashboardRepo) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return f.usersByRole, nil
}

func (f *fakeDashboardRepo) CountDocuments(ctx context.Context, universityID string) (int, error) {
	return f.totalDocuments, nil
}

func (f *fakeDashboardRepo) CountDocumentsByStatus(ctx context.Context, authorID string) (map[string]int, error) {
	return f.documentsByStatus, nil
}

func (f *fakeDashboardRepo) CountPendingDocuments(ctx context.Context, universityID string) (int, error) {
	return f.pendingDocuments, nil
}

func (f *fakeDashboardRepo) CountDocumentsByAuthor(ctx context.Context, authorID string) (int, error) {
	return f.documentsByAuthor[authorID], nil
}

func (f *fakeDashboardRepo) CountPendingElevations(ctx context.Context) (int, error) {
	return f.pendingElevations, nil
}

func (f *fakeDashboardRepo) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	return f.recent, nil
}

func (f *fakeDashboardRepo) PendingDocuments(ctx context.Context, universityID string, limit int) ([]models.Document, error) {
	return f.pending, nil
}

type fakeUniversityCounter struct {
	universities int
	courses      int
}

func (f *fakeUniversityCounter) Count(ctx context.Context) (int, error) {
	return f.universities, nil
}

func (f *fakeUniversityCounter) CountCourses(ctx context.Context, universityID string) (int, error) {
	return f.courses, nil
}

type fakeDashboardApprovals struct {
	requests     []models.ApprovalRequest
	pendingByUni int
}

func (f *fakeDashboardApprovals) List(ctx context.Context, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error) {
	return f.requests, len(f.requests), nil
}

func (f *fakeDashboardApprovals) CountPendingByUniversity(ctx context.Context, universityID string) (int, error) {
	return f.pendingByUni, nil
}

type fakeDashboardGrades struct {
	grades []models.Grade
	issued int
}

func (f *fakeDashboardGrades) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return f.grades, nil
}

func (f *fakeDashboardGrades) CountByProfessor(ctx context.Context, professorID string) (int, error) {
	return f.issued, nil
}

type fakeDocumentFinder struct {
	docs map[string]*models.Document
}

func (f *fakeDocumentFinder) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := f.docs[id]; ok {
		copy := *doc
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type dashboardFixture struct {
	svc       *DashboardService
	dashboard *fakeDashboardRepo
	approvals *fakeDashboardApprovals
	grades    *fakeDashboardGrades
	documents *fakeDocumentFinder
	users     *fakeUserRepo
	cache     *fakeCacheRepo
}

func newDashboardFixture(users *fakeUserRepo) *dashboardFixture {
	f := &dashboardFixture{
		dashboard: &fakeDashboardRepo{},
		approvals: &fakeDashboardApprovals{},
		grades:    &fakeDashboardGrades{},
		documents: &fakeDocumentFinder{docs: make(map[string]*models.Document)},
		users:     users,
		cache:     newFakeCacheRepo(),
	}
	cache := NewCacheService(f.cache, nil, time.Minute, nil, true)
	f.svc = NewDashboardService(f.dashboard, &fakeUniversityCounter{universities: 2, courses: 4},
		f.approvals, f.grades, f.documents, users,
		NewGuard(users, nil), testGamification(users), cache, config.DashboardConfig{}, nil)
	return f
}

func TestAdminDashboardAggregates(t *testing.T) {
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(admin)
	f := newDashboardFixture(users)
	f.dashboard.totalUsers = 42
	f.dashboard.totalDocuments = 7
	f.dashboard.pendingDocuments = 3
	f.dashboard.pendingElevations = 1
	f.dashboard.usersByRole = map[string]int{"STUDENT": 40, "ADMIN": 2}

	resp, err := f.svc.Admin(context.Background(), claimsFor(admin))
	require.NoError(t, err)
	assert.Equal(t, 42, resp.TotalUsers)
	assert.Equal(t, 7, resp.TotalDocuments)
	assert.Equal(t, 3, resp.PendingDocuments)
	assert.Equal(t, 1, resp.PendingElevations)
	assert.Equal(t, 2, resp.TotalUniversities)
	assert.Equal(t, 40, resp.UsersByRole["STUDENT"])
}

func TestAdminDashboardServedFromCache(t *testing.T) {
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(admin)
	f := newDashboardFixture(users)
	f.dashboard.totalUsers = 10

	_, err := f.svc.Admin(context.Background(), claimsFor(admin))
	require.NoError(t, err)
	second, err := f.svc.Admin(context.Background(), claimsFor(admin))
	require.NoError(t, err)

	assert.Equal(t, 1, f.dashboard.countUserCalls, "the second request must hit the cache")
	assert.Equal(t, 10, second.TotalUsers)
}

func TestDirectorDashboardRequiresUniversity(t *testing.T) {
	director := testUser("dir-1", models.RoleDirector)
	users := newFakeUserRepo(director)
	f := newDashboardFixture(users)

	_, err := f.svc.Director(context.Background(), claimsFor(director))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDirectorDashboardScopedCounts(t *testing.T) {
	uni := "uni-1"
	director := testUser("dir-1", models.RoleDirector)
	director.UniversityID = &uni
	users := newFakeUserRepo(director)
	f := newDashboardFixture(users)
	f.dashboard.totalDocuments = 12
	f.dashboard.pending = []models.Document{{ID: "doc-1", Status: models.StatusPending}}
	f.approvals.pendingByUni = 2

	resp, err := f.svc.Director(context.Background(), claimsFor(director))
	require.NoError(t, err)
	assert.Equal(t, uni, resp.UniversityID)
	assert.Len(t, resp.PendingDocuments, 1)
	assert.Equal(t, 2, resp.PendingRequests)
	assert.Equal(t, 12, resp.TotalDocuments)
	assert.Equal(t, 4, resp.TotalCourses)
}

func TestProfessorDashboardSkipsDecidedDocuments(t *testing.T) {
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(professor)
	f := newDashboardFixture(users)

	pendingID := "doc-pending"
	approvedID := "doc-approved"
	deletedID := "doc-deleted"
	f.approvals.requests = []models.ApprovalRequest{
		{ID: "req-1", DocumentID: &pendingID},
		{ID: "req-2", DocumentID: &approvedID},
		{ID: "req-3", DocumentID: &deletedID},
	}
	f.documents.docs[pendingID] = &models.Document{ID: pendingID, Status: models.StatusPending}
	f.documents.docs[approvedID] = &models.Document{ID: approvedID, Status: models.StatusApproved}
	f.grades.issued = 6

	resp, err := f.svc.Professor(context.Background(), claimsFor(professor))
	require.NoError(t, err)
	require.Len(t, resp.PendingReviews, 1)
	assert.Equal(t, pendingID, resp.PendingReviews[0].ID)
	assert.Equal(t, 6, resp.GradesIssued)
}

func TestStudentDashboardIncludesGamification(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	student.Points = 230
	users := newFakeUserRepo(student)
	users.stats[student.ID] = models.UserStats{Uploads: 2, Followers: 3, Following: 1}
	f := newDashboardFixture(users)
	f.dashboard.documentsByStatus = map[string]int{"APPROVED": 2, "PENDING": 1}

	resp, err := f.svc.Student(context.Background(), claimsFor(student))
	require.NoError(t, err)
	assert.Equal(t, 230, resp.Points)
	assert.Equal(t, 3, resp.Level)
	assert.Contains(t, resp.Badges, "FIRST_UPLOAD")
	assert.Equal(t, 3, resp.Followers)
	assert.Equal(t, 2, resp.DocumentsByStatus["APPROVED"])
}
