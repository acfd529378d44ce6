package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type dashboardRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	CountDocuments(ctx context.Context, universityID string) (int, error)
	CountDocumentsByStatus(ctx context.Context, authorID string) (map[string]int, error)
	CountPendingDocuments(ctx context.Context, universityID string) (int, error)
	CountDocumentsByAuthor(ctx context.Context, authorID string) (int, error)
	CountPendingElevations(ctx context.Context) (int, error)
	RecentDocuments(ctx context.Context, limit int) ([]models.Document, error)
	PendingDocuments(ctx context.Context, universityID string, limit int) ([]models.Document, error)
}

type dashboardUniversityCounter interface {
	Count(ctx context.Context) (int, error)
	CountCourses(ctx context.Context, universityID string) (int, error)
}

type dashboardApprovalRepository interface {
	List(ctx context.Context, filter models.ApprovalRequestFilter) ([]models.ApprovalRequest, int, error)
	CountPendingByUniversity(ctx context.Context, universityID string) (int, error)
}

type dashboardGradeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	CountByProfessor(ctx context.Context, professorID string) (int, error)
}

type dashboardDocumentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
}

type dashboardUserStats interface {
	Stats(ctx context.Context, id string) (*models.UserStats, error)
}

// DashboardService assembles the per-role landing payloads. Every payload is
// cached under a dashboard:* key so moderation and approval flows can blow the
// whole family away with one pattern invalidation.
type DashboardService struct {
	dashboards   dashboardRepository
	universities dashboardUniversityCounter
	approvals    dashboardApprovalRepository
	grades       dashboardGradeRepository
	documents    dashboardDocumentFinder
	users        dashboardUserStats
	guard        *Guard
	gamification *GamificationService
	cache        *CacheService
	cfg          config.DashboardConfig
	logger       *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(
	dashboards dashboardRepository,
	universities dashboardUniversityCounter,
	approvals dashboardApprovalRepository,
	grades dashboardGradeRepository,
	documents dashboardDocumentFinder,
	users dashboardUserStats,
	guard *Guard,
	gamification *GamificationService,
	cache *CacheService,
	cfg config.DashboardConfig,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		dashboards:   dashboards,
		universities: universities,
		approvals:    approvals,
		grades:       grades,
		documents:    documents,
		users:        users,
		guard:        guard,
		gamification: gamification,
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
	}
}

// Admin builds the platform-wide dashboard.
func (s *DashboardService) Admin(ctx context.Context, claims *models.JWTClaims) (*dto.AdminDashboardResponse, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:admin:%s", actor.ID)
	var cached dto.AdminDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	totalUsers, err := s.dashboards.CountUsers(ctx)
	if err != nil {
		return nil, s.wrap(err)
	}
	usersByRole, err := s.dashboards.CountUsersByRole(ctx)
	if err != nil {
		return nil, s.wrap(err)
	}
	totalDocs, err := s.dashboards.CountDocuments(ctx, "")
	if err != nil {
		return nil, s.wrap(err)
	}
	pendingDocs, err := s.dashboards.CountPendingDocuments(ctx, "")
	if err != nil {
		return nil, s.wrap(err)
	}
	pendingElevations, err := s.dashboards.CountPendingElevations(ctx)
	if err != nil {
		return nil, s.wrap(err)
	}
	totalUniversities, err := s.universities.Count(ctx)
	if err != nil {
		return nil, s.wrap(err)
	}
	recent, err := s.dashboards.RecentDocuments(ctx, 10)
	if err != nil {
		return nil, s.wrap(err)
	}
	leaderboard, err := s.gamification.Leaderboard(ctx)
	if err != nil {
		return nil, s.wrap(err)
	}

	payload := &dto.AdminDashboardResponse{
		TotalUsers:        totalUsers,
		TotalDocuments:    totalDocs,
		PendingDocuments:  pendingDocs,
		PendingElevations: pendingElevations,
		TotalUniversities: totalUniversities,
		UsersByRole:       usersByRole,
		RecentDocuments:   recent,
		Leaderboard:       leaderboard,
		GeneratedAt:       time.Now().UTC(),
	}
	s.store(ctx, key, payload)
	return payload, nil
}

// Director builds the university-scoped dashboard.
func (s *DashboardService) Director(ctx context.Context, claims *models.JWTClaims) (*dto.DirectorDashboardResponse, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleDirector)
	if err != nil {
		return nil, err
	}
	if actor.UniversityID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "director has no university association")
	}
	universityID := *actor.UniversityID

	key := fmt.Sprintf("dashboard:director:%s", actor.ID)
	var cached dto.DirectorDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	pending, err := s.dashboards.PendingDocuments(ctx, universityID, 20)
	if err != nil {
		return nil, s.wrap(err)
	}
	pendingRequests, err := s.approvals.CountPendingByUniversity(ctx, universityID)
	if err != nil {
		return nil, s.wrap(err)
	}
	totalDocs, err := s.dashboards.CountDocuments(ctx, universityID)
	if err != nil {
		return nil, s.wrap(err)
	}
	totalCourses, err := s.universities.CountCourses(ctx, universityID)
	if err != nil {
		return nil, s.wrap(err)
	}

	payload := &dto.DirectorDashboardResponse{
		UniversityID:     universityID,
		PendingDocuments: pending,
		PendingRequests:  pendingRequests,
		TotalDocuments:   totalDocs,
		TotalCourses:     totalCourses,
		GeneratedAt:      time.Now().UTC(),
	}
	s.store(ctx, key, payload)
	return payload, nil
}

// Professor builds the review-queue dashboard. The queue holds the documents
// behind this professor's open review requests.
func (s *DashboardService) Professor(ctx context.Context, claims *models.JWTClaims) (*dto.ProfessorDashboardResponse, error) {
	actor, err := s.guard.Require(ctx, claims, models.RoleProfessor)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:professor:%s", actor.ID)
	var cached dto.ProfessorDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	kind := models.ApprovalKindDocumentReview
	status := models.StatusPending
	requests, _, err := s.approvals.List(ctx, models.ApprovalRequestFilter{
		Kind:       &kind,
		Status:     &status,
		ApproverID: actor.ID,
	})
	if err != nil {
		return nil, s.wrap(err)
	}

	reviews := make([]models.Document, 0, len(requests))
	for _, req := range requests {
		if req.DocumentID == nil {
			continue
		}
		doc, err := s.documents.FindByID(ctx, *req.DocumentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, s.wrap(err)
		}
		if doc.Status == models.StatusPending {
			reviews = append(reviews, *doc)
		}
	}

	gradesIssued, err := s.grades.CountByProfessor(ctx, actor.ID)
	if err != nil {
		return nil, s.wrap(err)
	}
	ownDocs, err := s.dashboards.CountDocumentsByAuthor(ctx, actor.ID)
	if err != nil {
		return nil, s.wrap(err)
	}

	payload := &dto.ProfessorDashboardResponse{
		PendingReviews: reviews,
		GradesIssued:   gradesIssued,
		OwnDocuments:   ownDocs,
		GeneratedAt:    time.Now().UTC(),
	}
	s.store(ctx, key, payload)
	return payload, nil
}

// Student builds the personal dashboard for students and ordinary users.
func (s *DashboardService) Student(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboardResponse, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:student:%s", actor.ID)
	var cached dto.StudentDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	byStatus, err := s.dashboards.CountDocumentsByStatus(ctx, actor.ID)
	if err != nil {
		return nil, s.wrap(err)
	}
	grades, err := s.grades.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, s.wrap(err)
	}
	stats, err := s.users.Stats(ctx, actor.ID)
	if err != nil {
		return nil, s.wrap(err)
	}

	payload := &dto.StudentDashboardResponse{
		DocumentsByStatus: byStatus,
		Points:            actor.Points,
		Level:             s.gamification.Level(actor.Points),
		Badges:            s.gamification.Badges(*stats, actor.Points),
		Grades:            grades,
		Followers:         stats.Followers,
		Following:         stats.Following,
		GeneratedAt:       time.Now().UTC(),
	}
	s.store(ctx, key, payload)
	return payload, nil
}

func (s *DashboardService) store(ctx context.Context, key string, payload interface{}) {
	if err := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) wrap(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
}
