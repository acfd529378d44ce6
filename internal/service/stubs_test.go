package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
)

// fakeUserRepo backs the guard and the user-facing services in tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*models.User
	stats   map[string]models.UserStats
	awarded map[string]int
	err     error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:   make(map[string]*models.User),
		stats:   make(map[string]models.UserStats),
		awarded: make(map[string]int),
	}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByApprovalTag(ctx context.Context, tag string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ApprovalTag != nil && *user.ApprovalTag == tag {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) ListDirectors(ctx context.Context, universityID string) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var directors []models.User
	for _, user := range f.users {
		if user.Role == models.RoleDirector && user.Active && user.UniversityID != nil && *user.UniversityID == universityID {
			directors = append(directors, *user)
		}
	}
	return directors, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.Active = false
	}
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, user := range f.users {
		users = append(users, *user)
	}
	return users, len(users), nil
}

func (f *fakeUserRepo) SetApprovalTag(ctx context.Context, id, tag string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.ApprovalTag = &tag
	}
	return nil
}

func (f *fakeUserRepo) SetRole(ctx context.Context, id string, role models.UserRole, approved bool) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.Role = role
		user.Approved = approved
	}
	return nil
}

func (f *fakeUserRepo) SetUniversity(ctx context.Context, id, universityID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.UniversityID = &universityID
	}
	return nil
}

func (f *fakeUserRepo) IncrementPoints(ctx context.Context, id string, amount int) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awarded[id] += amount
	if user, ok := f.users[id]; ok {
		user.Points += amount
	}
	return nil
}

func (f *fakeUserRepo) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, user := range f.users {
		users = append(users, *user)
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeUserRepo) Stats(ctx context.Context, id string) (*models.UserStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats[id]
	return &stats, nil
}

// fakeOutbox records the side effects a service requested.
type fakeOutbox struct {
	mu            sync.Mutex
	notifications []models.OutboxEntry
	emails        []models.OutboxEntry
}

func (f *fakeOutbox) Notify(ctx context.Context, recipientID string, nType models.NotificationType, title, message, link string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, models.OutboxEntry{
		Channel: models.OutboxChannelNotification, RecipientID: recipientID, Type: nType, Title: title, Message: message, Link: link,
	})
}

func (f *fakeOutbox) Email(ctx context.Context, recipientID string, nType models.NotificationType, subject, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, models.OutboxEntry{
		Channel: models.OutboxChannelEmail, RecipientID: recipientID, Type: nType, Title: subject, Message: body,
	})
}

func (f *fakeOutbox) notifiedTypes(recipientID string) []models.NotificationType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []models.NotificationType
	for _, entry := range f.notifications {
		if entry.RecipientID == recipientID {
			types = append(types, entry.Type)
		}
	}
	return types
}

// fakeInvalidator records cache invalidation patterns.
type fakeInvalidator struct {
	mu       sync.Mutex
	patterns []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	return nil
}

func testGamification(repo pointsUserRepository) *GamificationService {
	return NewGamificationService(repo, config.GamificationConfig{
		UploadAward:     5,
		ApprovalAward:   10,
		RatingAward:     1,
		FollowerAward:   2,
		LevelStep:       100,
		LeaderboardSize: 10,
	}, nil)
}

func testUser(id string, role models.UserRole) *models.User {
	return &models.User{
		ID:       id,
		Email:    id + "@example.edu",
		FullName: "User " + id,
		Role:     role,
		Approved: true,
		Active:   true,
	}
}

func claimsFor(user *models.User) *models.JWTClaims {
	return &models.JWTClaims{UserID: user.ID, Role: user.Role, Email: user.Email, FullName: user.FullName}
}
