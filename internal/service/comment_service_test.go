package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*models.Comment
	nextID   int
}

func newFakeCommentRepo(comments ...*models.Comment) *fakeCommentRepo {
	repo := &fakeCommentRepo{comments: make(map[string]*models.Comment)}
	for _, comment := range comments {
		repo.comments[comment.ID] = comment
	}
	return repo
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment.ID == "" {
		f.nextID++
		comment.ID = "comment-" + string(rune('0'+f.nextID))
	}
	copy := *comment
	f.comments[comment.ID] = &copy
	return nil
}

func (f *fakeCommentRepo) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment, ok := f.comments[id]; ok {
		copy := *comment
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCommentRepo) ListByDocument(ctx context.Context, documentID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, comment := range f.comments {
		if comment.DocumentID == documentID {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) React(ctx context.Context, id string, like bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return sql.ErrNoRows
	}
	if like {
		comment.Likes++
	} else {
		comment.Dislikes++
	}
	return nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for cid, comment := range f.comments {
		if cid == id || (comment.ParentCommentID != nil && *comment.ParentCommentID == id) {
			delete(f.comments, cid)
		}
	}
	return nil
}

func newCommentFixture(users *fakeUserRepo, docs *fakeDocumentRepo, comments *fakeCommentRepo) (*CommentService, *fakeOutbox) {
	outbox := &fakeOutbox{}
	svc := NewCommentService(comments, docs, NewGuard(users, nil), outbox, validator.New(), nil)
	return svc, outbox
}

func TestCommentCreateNotifiesAuthor(t *testing.T) {
	author := testUser("author-1", models.RoleStudent)
	commenter := testUser("student-2", models.RoleStudent)
	users := newFakeUserRepo(author, commenter)
	doc := &models.Document{ID: "doc-1", Title: "Notes", AuthorID: author.ID, Status: models.StatusApproved}
	svc, outbox := newCommentFixture(users, newFakeDocumentRepo(doc), newFakeCommentRepo())

	comment, err := svc.Create(context.Background(), claimsFor(commenter), doc.ID,
		dto.CreateCommentRequest{Content: "great summary"})
	require.NoError(t, err)
	assert.Equal(t, commenter.ID, comment.AuthorID)
	assert.Contains(t, outbox.notifiedTypes(author.ID), models.NotificationTypeNewComment)
}

func TestCommentOwnDocumentSkipsNotification(t *testing.T) {
	author := testUser("author-1", models.RoleStudent)
	users := newFakeUserRepo(author)
	doc := &models.Document{ID: "doc-1", AuthorID: author.ID, Status: models.StatusApproved}
	svc, outbox := newCommentFixture(users, newFakeDocumentRepo(doc), newFakeCommentRepo())

	_, err := svc.Create(context.Background(), claimsFor(author), doc.ID,
		dto.CreateCommentRequest{Content: "author note"})
	require.NoError(t, err)
	assert.Empty(t, outbox.notifications)
}

func TestCommentReplyToReplyRejected(t *testing.T) {
	author := testUser("author-1", models.RoleStudent)
	users := newFakeUserRepo(author)
	doc := &models.Document{ID: "doc-1", AuthorID: "other", Status: models.StatusApproved}
	topID := "comment-top"
	top := &models.Comment{ID: topID, DocumentID: doc.ID, AuthorID: "other", Content: "top"}
	reply := &models.Comment{ID: "comment-reply", DocumentID: doc.ID, AuthorID: "other", Content: "reply", ParentCommentID: &topID}
	svc, _ := newCommentFixture(users, newFakeDocumentRepo(doc), newFakeCommentRepo(top, reply))

	_, err := svc.Create(context.Background(), claimsFor(author), doc.ID,
		dto.CreateCommentRequest{Content: "too deep", ParentCommentID: &reply.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommentParentFromAnotherDocumentRejected(t *testing.T) {
	author := testUser("author-1", models.RoleStudent)
	users := newFakeUserRepo(author)
	docA := &models.Document{ID: "doc-a", AuthorID: "other", Status: models.StatusApproved}
	docB := &models.Document{ID: "doc-b", AuthorID: "other", Status: models.StatusApproved}
	parent := &models.Comment{ID: "comment-1", DocumentID: docB.ID, AuthorID: "other", Content: "elsewhere"}
	svc, _ := newCommentFixture(users, newFakeDocumentRepo(docA, docB), newFakeCommentRepo(parent))

	_, err := svc.Create(context.Background(), claimsFor(author), docA.ID,
		dto.CreateCommentRequest{Content: "crossed", ParentCommentID: &parent.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommentDeleteAuthorOrAdminOnly(t *testing.T) {
	author := testUser("author-1", models.RoleStudent)
	stranger := testUser("student-2", models.RoleStudent)
	admin := testUser("admin-1", models.RoleAdmin)
	users := newFakeUserRepo(author, stranger, admin)
	doc := &models.Document{ID: "doc-1", AuthorID: "other", Status: models.StatusApproved}
	comment := &models.Comment{ID: "comment-1", DocumentID: doc.ID, AuthorID: author.ID, Content: "mine"}
	comments := newFakeCommentRepo(comment)
	svc, _ := newCommentFixture(users, newFakeDocumentRepo(doc), comments)

	err := svc.Delete(context.Background(), claimsFor(stranger), comment.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), claimsFor(admin), comment.ID))
	_, err = comments.FindByID(context.Background(), comment.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCommentReact(t *testing.T) {
	voter := testUser("student-1", models.RoleStudent)
	users := newFakeUserRepo(voter)
	doc := &models.Document{ID: "doc-1", AuthorID: "other", Status: models.StatusApproved}
	comment := &models.Comment{ID: "comment-1", DocumentID: doc.ID, AuthorID: "other", Content: "hi"}
	comments := newFakeCommentRepo(comment)
	svc, _ := newCommentFixture(users, newFakeDocumentRepo(doc), comments)

	require.NoError(t, svc.React(context.Background(), claimsFor(voter), comment.ID, dto.ReactCommentRequest{Reaction: "LIKE"}))
	require.NoError(t, svc.React(context.Background(), claimsFor(voter), comment.ID, dto.ReactCommentRequest{Reaction: "DISLIKE"}))

	updated, err := comments.FindByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, 1, updated.Dislikes)
}
