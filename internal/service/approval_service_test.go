package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type fakeApprovalRepo struct {
	mu       sync.Mutex
	requests map[string]*models.ApprovalRequest
	nextID   int
	err      error
}

func newFakeApprovalRepo(requests ...*models.ApprovalRequest) *fakeApprovalRepo {
	repo := &fakeApprovalRepo{requests: make(map[string]*models.ApprovalRequest)}
	for _, req := range requests {
		repo.requests[req.ID] = req
	}
	return repo
}

func (f *fakeApprovalRepo) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == "" {
		f.nextID++
		req.ID = "req-" + string(rune('0'+f.nextID))
	}
	copy := *req
	f.requests[req.ID] = &copy
	return nil
}

func (f *fakeApprovalRepo) FindByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApprovalRepo) HasPending(ctx context.Context, requesterID string, kind models.ApprovalRequestKind) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.RequesterID == requesterID && req.Kind == kind && req.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApprovalRepo) Decide(ctx context.Context, id string, status models.ReviewStatus, decidedBy string, decidedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &decidedAt
	return nil
}

func (f *fakeApprovalRepo) List(ctx context.Context, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApprovalRequest
	for _, req := range f.requests {
		if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ApproverID != "" && (req.ApproverID == nil || *req.ApproverID != filter.ApproverID) {
			continue
		}
		if filter.UniversityID != "" && (req.UniversityID == nil || *req.UniversityID != filter.UniversityID) {
			continue
		}
		if filter.Kind != nil && req.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, len(out), nil
}

type fakeUniversityFinder struct {
	universities map[string]*models.University
}

func (f *fakeUniversityFinder) FindByID(ctx context.Context, id string) (*models.University, error) {
	if uni, ok := f.universities[id]; ok {
		return uni, nil
	}
	return nil, sql.ErrNoRows
}

type approvalServiceFixture struct {
	service   *ApprovalService
	approvals *fakeApprovalRepo
	users     *fakeUserRepo
	docs      *fakeDocumentRepo
	outbox    *fakeOutbox
}

func newApprovalFixture(users *fakeUserRepo, approvals *fakeApprovalRepo, universities *fakeUniversityFinder, docs *fakeDocumentRepo) *approvalServiceFixture {
	if universities == nil {
		universities = &fakeUniversityFinder{}
	}
	if docs == nil {
		docs = newFakeDocumentRepo()
	}
	outbox := &fakeOutbox{}
	svc := NewApprovalService(approvals, users, universities, docs,
		NewGuard(users, nil), outbox, testGamification(users), &fakeInvalidator{}, validator.New(), nil)
	return &approvalServiceFixture{service: svc, approvals: approvals, users: users, docs: docs, outbox: outbox}
}

func TestCreateElevationRequest(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newApprovalFixture(users, newFakeApprovalRepo(), nil, nil)

	role := "PROFESSOR"
	request, err := fx.service.Create(context.Background(), claimsFor(student),
		dto.CreateApprovalRequest{Kind: "ROLE_ELEVATION", RequestedRole: &role})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, request.Status)
	require.NotNil(t, request.RequestedRole)
	assert.Equal(t, models.RoleProfessor, *request.RequestedRole)
}

func TestCreateElevationSkippingLevelRejected(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newApprovalFixture(users, newFakeApprovalRepo(), nil, nil)

	role := "DIRECTOR"
	_, err := fx.service.Create(context.Background(), claimsFor(student),
		dto.CreateApprovalRequest{Kind: "ROLE_ELEVATION", RequestedRole: &role})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateDuplicatePendingConflicts(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newApprovalFixture(users, newFakeApprovalRepo(), nil, nil)

	role := "PROFESSOR"
	_, err := fx.service.Create(context.Background(), claimsFor(student),
		dto.CreateApprovalRequest{Kind: "ROLE_ELEVATION", RequestedRole: &role})
	require.NoError(t, err)

	_, err = fx.service.Create(context.Background(), claimsFor(student),
		dto.CreateApprovalRequest{Kind: "ROLE_ELEVATION", RequestedRole: &role})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateAssociationNotifiesDirectors(t *testing.T) {
	uniID := "uni-1"
	student := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	director.UniversityID = &uniID
	users := newFakeUserRepo(student, director)
	universities := &fakeUniversityFinder{universities: map[string]*models.University{
		uniID: {ID: uniID, Name: "Testing University"},
	}}
	fx := newApprovalFixture(users, newFakeApprovalRepo(), universities, nil)

	_, err := fx.service.Create(context.Background(), claimsFor(student),
		dto.CreateApprovalRequest{Kind: "UNIVERSITY_ASSOCIATION", UniversityID: &uniID})
	require.NoError(t, err)
	assert.NotEmpty(t, fx.outbox.notifiedTypes(director.ID))
}

func TestDecideElevationAdminOnly(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(student, director, admin)
	role := models.RoleProfessor
	request := &models.ApprovalRequest{ID: "req-1", Kind: models.ApprovalKindRoleElevation,
		RequesterID: student.ID, RequestedRole: &role, Status: models.StatusPending}
	fx := newApprovalFixture(users, newFakeApprovalRepo(request), nil, nil)

	_, err := fx.service.Decide(context.Background(), claimsFor(director), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	decided, err := fx.service.Decide(context.Background(), claimsFor(admin), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)

	elevated, err := users.FindByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleProfessor, elevated.Role)
	assert.True(t, elevated.Approved)
}

func TestDecideTwiceIsFinalized(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(student, admin)
	role := models.RoleProfessor
	request := &models.ApprovalRequest{ID: "req-1", Kind: models.ApprovalKindRoleElevation,
		RequesterID: student.ID, RequestedRole: &role, Status: models.StatusPending}
	fx := newApprovalFixture(users, newFakeApprovalRepo(request), nil, nil)

	_, err := fx.service.Decide(context.Background(), claimsFor(admin), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.NoError(t, err)

	_, err = fx.service.Decide(context.Background(), claimsFor(admin), request.ID,
		dto.DecideApprovalRequest{Decision: "REJECT"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}

func TestDecideDocumentReviewAddressedReviewerOnly(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	reviewer := testUser("prof-1", models.RoleProfessor)
	other := testUser("prof-2", models.RoleProfessor)
	users := newFakeUserRepo(student, reviewer, other)
	doc := &models.Document{ID: "doc-1", AuthorID: student.ID, Status: models.StatusPending}
	docs := newFakeDocumentRepo(doc)
	request := &models.ApprovalRequest{ID: "req-1", Kind: models.ApprovalKindDocumentReview,
		RequesterID: student.ID, ApproverID: &reviewer.ID, DocumentID: &doc.ID, Status: models.StatusPending}
	fx := newApprovalFixture(users, newFakeApprovalRepo(request), nil, docs)

	_, err := fx.service.Decide(context.Background(), claimsFor(other), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = fx.service.Decide(context.Background(), claimsFor(reviewer), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.NoError(t, err)

	updated, err := docs.FindByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, 10, users.awarded[student.ID])
}

func TestDecideAssociationAppliesUniversity(t *testing.T) {
	uniID := "uni-1"
	student := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	director.UniversityID = &uniID
	users := newFakeUserRepo(student, director)
	request := &models.ApprovalRequest{ID: "req-1", Kind: models.ApprovalKindUniversityAssociation,
		RequesterID: student.ID, UniversityID: &uniID, Status: models.StatusPending}
	fx := newApprovalFixture(users, newFakeApprovalRepo(request), nil, nil)

	_, err := fx.service.Decide(context.Background(), claimsFor(director), request.ID,
		dto.DecideApprovalRequest{Decision: "APPROVE"})
	require.NoError(t, err)

	joined, err := users.FindByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.NotNil(t, joined.UniversityID)
	assert.Equal(t, uniID, *joined.UniversityID)
}

func TestListScopesByRole(t *testing.T) {
	uniID := "uni-1"
	student := testUser("student-1", models.RoleStudent)
	reviewer := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(student, reviewer)
	mine := &models.ApprovalRequest{ID: "req-1", Kind: models.ApprovalKindRoleElevation,
		RequesterID: student.ID, Status: models.StatusPending}
	addressed := &models.ApprovalRequest{ID: "req-2", Kind: models.ApprovalKindDocumentReview,
		RequesterID: "someone-else", ApproverID: &reviewer.ID, UniversityID: &uniID, Status: models.StatusPending}
	fx := newApprovalFixture(users, newFakeApprovalRepo(mine, addressed), nil, nil)

	own, _, err := fx.service.List(context.Background(), claimsFor(student), models.ApprovalRequestFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "req-1", own[0].ID)

	queue, _, err := fx.service.List(context.Background(), claimsFor(reviewer), models.ApprovalRequestFilter{})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "req-2", queue[0].ID)
}
