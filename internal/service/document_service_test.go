package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/storage"
)

type fakeDocumentRepo struct {
	mu        sync.Mutex
	docs      map[string]*models.Document
	favorites map[string]bool
	nextID    int
	err       error
}

func newFakeDocumentRepo(docs ...*models.Document) *fakeDocumentRepo {
	repo := &fakeDocumentRepo{docs: make(map[string]*models.Document), favorites: make(map[string]bool)}
	for _, doc := range docs {
		repo.docs[doc.ID] = doc
	}
	return repo
}

func (f *fakeDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		copy := *doc
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc.ID == "" {
		f.nextID++
		doc.ID = "doc-" + string(rune('0'+f.nextID))
	}
	copy := *doc
	f.docs[doc.ID] = &copy
	return nil
}

func (f *fakeDocumentRepo) UpdateStatus(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, reviewedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	doc.Status = status
	doc.ReviewerID = &reviewerID
	doc.ReviewedAt = &reviewedAt
	return nil
}

func (f *fakeDocumentRepo) IncrementViews(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Views++
	}
	return nil
}

func (f *fakeDocumentRepo) IncrementDownloads(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Downloads++
	}
	return nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentRepo) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []models.Document
	for _, doc := range f.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != "" && doc.AuthorID != filter.AuthorID {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, len(docs), nil
}

func (f *fakeDocumentRepo) HasFavorite(ctx context.Context, userID, documentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites[userID+"/"+documentID], nil
}

func (f *fakeDocumentRepo) AddFavorite(ctx context.Context, userID, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[userID+"/"+documentID] = true
	return nil
}

func (f *fakeDocumentRepo) RemoveFavorite(ctx context.Context, userID, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.favorites, userID+"/"+documentID)
	return nil
}

func (f *fakeDocumentRepo) ListFavorites(ctx context.Context, userID string) ([]models.Document, error) {
	return nil, nil
}

type fakeUniversityTagRepo struct {
	universities map[string]*models.University
}

func (f *fakeUniversityTagRepo) FindByApprovalTag(ctx context.Context, tag string) (*models.University, error) {
	for _, uni := range f.universities {
		if uni.ApprovalTag != nil && *uni.ApprovalTag == tag {
			return uni, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeApprovalCreator struct {
	mu       sync.Mutex
	requests []*models.ApprovalRequest
	err      error
}

func (f *fakeApprovalCreator) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == "" {
		req.ID = "req-1"
	}
	f.requests = append(f.requests, req)
	return nil
}

type fakeGradeCreator struct {
	grades []*models.Grade
	err    error
}

func (f *fakeGradeCreator) Create(ctx context.Context, grade *models.Grade) error {
	if f.err != nil {
		return f.err
	}
	f.grades = append(f.grades, grade)
	return nil
}

type fakeBlobStorage struct {
	mu     sync.Mutex
	saved  map[string][]byte
	errors bool
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{saved: make(map[string][]byte)}
}

func (f *fakeBlobStorage) SaveStream(filename string, r io.Reader) (int64, error) {
	if f.errors {
		return 0, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[filename] = data
	return int64(len(data)), nil
}

func (f *fakeBlobStorage) Open(filename string) (*os.File, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBlobStorage) Delete(filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, filename)
	return nil
}

type documentServiceFixture struct {
	service *DocumentService
	docs    *fakeDocumentRepo
	users   *fakeUserRepo
	blobs   *fakeBlobStorage
	outbox  *fakeOutbox
	reviews *fakeApprovalCreator
	grades  *fakeGradeCreator
	cache   *fakeInvalidator
}

func newDocumentFixture(users *fakeUserRepo, docs *fakeDocumentRepo, universities *fakeUniversityTagRepo) *documentServiceFixture {
	if universities == nil {
		universities = &fakeUniversityTagRepo{}
	}
	blobs := newFakeBlobStorage()
	outbox := &fakeOutbox{}
	reviews := &fakeApprovalCreator{}
	grades := &fakeGradeCreator{}
	cache := &fakeInvalidator{}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewDocumentService(
		docs, users, universities, reviews, grades, blobs, signer,
		NewGuard(users, nil), outbox, testGamification(users), cache,
		validator.New(), config.UploadsConfig{MaxFileSizeBytes: 1 << 20}, "/api/v1", nil,
	)
	return &documentServiceFixture{service: svc, docs: docs, users: users, blobs: blobs, outbox: outbox, reviews: reviews, grades: grades, cache: cache}
}

func TestUploadStudentStartsPending(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newDocumentFixture(users, newFakeDocumentRepo(), nil)

	doc, err := fx.service.Upload(context.Background(), claimsFor(student),
		dto.UploadDocumentRequest{Title: "Calculus notes"},
		strings.NewReader("content"), "notes.pdf", "application/pdf", 7)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, doc.Status)
	assert.Nil(t, doc.ReviewerID)
	assert.Equal(t, 5, users.awarded[student.ID])
	assert.Len(t, fx.blobs.saved, 1)
}

func TestUploadProfessorPublishesImmediately(t *testing.T) {
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(professor)
	fx := newDocumentFixture(users, newFakeDocumentRepo(), nil)

	doc, err := fx.service.Upload(context.Background(), claimsFor(professor),
		dto.UploadDocumentRequest{Title: "Lecture slides"},
		strings.NewReader("content"), "slides.pdf", "application/pdf", 7)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, doc.Status)
	require.NotNil(t, doc.ReviewerID)
	assert.Equal(t, professor.ID, *doc.ReviewerID)
}

func TestUploadUnknownTagFailsBeforeStorage(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newDocumentFixture(users, newFakeDocumentRepo(), nil)

	_, err := fx.service.Upload(context.Background(), claimsFor(student),
		dto.UploadDocumentRequest{Title: "Notes", ApprovalTag: "nope"},
		strings.NewReader("content"), "notes.pdf", "application/pdf", 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fx.blobs.saved, "a bad tag must fail before the blob is written")
}

func TestUploadProfessorTagOpensReviewRequest(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	tag := "prof-smith"
	reviewer := testUser("prof-1", models.RoleProfessor)
	reviewer.ApprovalTag = &tag
	users := newFakeUserRepo(student, reviewer)
	fx := newDocumentFixture(users, newFakeDocumentRepo(), nil)

	doc, err := fx.service.Upload(context.Background(), claimsFor(student),
		dto.UploadDocumentRequest{Title: "Thesis draft", ApprovalTag: tag},
		strings.NewReader("content"), "thesis.pdf", "application/pdf", 7)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, doc.Status)
	require.Len(t, fx.reviews.requests, 1)
	request := fx.reviews.requests[0]
	assert.Equal(t, models.ApprovalKindDocumentReview, request.Kind)
	require.NotNil(t, request.ApproverID)
	assert.Equal(t, reviewer.ID, *request.ApproverID)
	assert.Contains(t, fx.outbox.notifiedTypes(reviewer.ID), models.NotificationTypeDocumentPending)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	fx := newDocumentFixture(users, newFakeDocumentRepo(), nil)

	_, err := fx.service.Upload(context.Background(), claimsFor(student),
		dto.UploadDocumentRequest{Title: "Big file"},
		strings.NewReader("content"), "big.pdf", "application/pdf", 2<<20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestModerateApproveAwardsAuthorAndNotifies(t *testing.T) {
	author := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	users := newFakeUserRepo(author, director)
	doc := &models.Document{ID: "doc-1", Title: "Notes", AuthorID: author.ID, Status: models.StatusPending}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	updated, err := fx.service.Moderate(context.Background(), claimsFor(director), doc.ID,
		dto.ModerateDocumentRequest{Decision: "APPROVE"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, 10, users.awarded[author.ID])
	assert.Contains(t, fx.outbox.notifiedTypes(author.ID), models.NotificationTypeDocumentApproved)
	assert.Contains(t, fx.cache.patterns, "dashboard:*")
}

func TestModerateSecondDecisionIsFinalized(t *testing.T) {
	author := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(author, director, admin)
	doc := &models.Document{ID: "doc-1", Title: "Notes", AuthorID: author.ID, Status: models.StatusPending}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	_, err := fx.service.Moderate(context.Background(), claimsFor(director), doc.ID,
		dto.ModerateDocumentRequest{Decision: "REJECT"})
	require.NoError(t, err)

	_, err = fx.service.Moderate(context.Background(), claimsFor(admin), doc.ID,
		dto.ModerateDocumentRequest{Decision: "APPROVE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	// The losing decision must not award points.
	assert.Equal(t, 0, users.awarded[author.ID])
}

func TestModerateOwnDocumentForbidden(t *testing.T) {
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(professor)
	doc := &models.Document{ID: "doc-1", AuthorID: professor.ID, Status: models.StatusPending}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	_, err := fx.service.Moderate(context.Background(), claimsFor(professor), doc.ID,
		dto.ModerateDocumentRequest{Decision: "APPROVE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestModerateOutsideUniversityScope(t *testing.T) {
	uniA, uniB := "uni-a", "uni-b"
	author := testUser("student-1", models.RoleStudent)
	director := testUser("dir-1", models.RoleDirector)
	director.UniversityID = &uniA
	users := newFakeUserRepo(author, director)
	doc := &models.Document{ID: "doc-1", AuthorID: author.ID, Status: models.StatusPending, UniversityID: &uniB}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	_, err := fx.service.Moderate(context.Background(), claimsFor(director), doc.ID,
		dto.ModerateDocumentRequest{Decision: "APPROVE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScopeMismatch.Code, appErrors.FromError(err).Code)
}

func TestModerateApproveWithGrade(t *testing.T) {
	author := testUser("student-1", models.RoleStudent)
	professor := testUser("prof-1", models.RoleProfessor)
	users := newFakeUserRepo(author, professor)
	doc := &models.Document{ID: "doc-1", Title: "Essay", AuthorID: author.ID, Status: models.StatusPending}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	score := 17
	_, err := fx.service.Moderate(context.Background(), claimsFor(professor), doc.ID,
		dto.ModerateDocumentRequest{Decision: "APPROVE", Grade: &score, Feedback: "solid work"})
	require.NoError(t, err)
	require.Len(t, fx.grades.grades, 1)
	assert.Equal(t, score, fx.grades.grades[0].Score)
	assert.Equal(t, author.ID, fx.grades.grades[0].StudentID)
	assert.Contains(t, fx.outbox.notifiedTypes(author.ID), models.NotificationTypeGradeReceived)
}

func TestGetHidesPendingFromStrangers(t *testing.T) {
	author := testUser("student-1", models.RoleStudent)
	stranger := testUser("student-2", models.RoleStudent)
	users := newFakeUserRepo(author, stranger)
	doc := &models.Document{ID: "doc-1", AuthorID: author.ID, Status: models.StatusPending}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	_, err := fx.service.Get(context.Background(), claimsFor(stranger), doc.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	got, err := fx.service.Get(context.Background(), claimsFor(author), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestListForcesApprovedForNonModerators(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	pending := &models.Document{ID: "doc-1", AuthorID: "other", Status: models.StatusPending}
	approved := &models.Document{ID: "doc-2", AuthorID: "other", Status: models.StatusApproved}
	fx := newDocumentFixture(users, newFakeDocumentRepo(pending, approved), nil)

	docs, total, err := fx.service.List(context.Background(), claimsFor(student), models.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-2", docs[0].ID)
}

func TestToggleFavorite(t *testing.T) {
	student := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(student)
	doc := &models.Document{ID: "doc-1", AuthorID: "other", Status: models.StatusApproved}
	fx := newDocumentFixture(users, newFakeDocumentRepo(doc), nil)

	resp, err := fx.service.ToggleFavorite(context.Background(), claimsFor(student), doc.ID)
	require.NoError(t, err)
	assert.True(t, resp.Favorited)

	resp, err = fx.service.ToggleFavorite(context.Background(), claimsFor(student), doc.ID)
	require.NoError(t, err)
	assert.False(t, resp.Favorited)
}
