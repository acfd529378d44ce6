package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/pkg/config"
)

type pointsUserRepository interface {
	IncrementPoints(ctx context.Context, id string, amount int) error
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
}

// GamificationService applies point awards and derives levels and badges.
// Awards are side effects of the primary operations: callers log failures
// and let the triggering write succeed.
type GamificationService struct {
	repo   pointsUserRepository
	cfg    config.GamificationConfig
	logger *zap.Logger
}

// NewGamificationService constructs a GamificationService.
func NewGamificationService(repo pointsUserRepository, cfg config.GamificationConfig, logger *zap.Logger) *GamificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LevelStep <= 0 {
		cfg.LevelStep = 100
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	return &GamificationService{repo: repo, cfg: cfg, logger: logger}
}

// AwardUpload credits the uploader.
func (s *GamificationService) AwardUpload(ctx context.Context, userID string) {
	s.award(ctx, userID, s.cfg.UploadAward, "upload")
}

// AwardApproval credits the author of an approved document.
func (s *GamificationService) AwardApproval(ctx context.Context, userID string) {
	s.award(ctx, userID, s.cfg.ApprovalAward, "approval")
}

// AwardRating credits the author of a rated document.
func (s *GamificationService) AwardRating(ctx context.Context, userID string) {
	s.award(ctx, userID, s.cfg.RatingAward, "rating")
}

// AwardFollower credits a user who gained a follower.
func (s *GamificationService) AwardFollower(ctx context.Context, userID string) {
	s.award(ctx, userID, s.cfg.FollowerAward, "follower")
}

func (s *GamificationService) award(ctx context.Context, userID string, amount int, reason string) {
	if err := s.repo.IncrementPoints(ctx, userID, amount); err != nil {
		s.logger.Warn("points award failed",
			zap.String("user_id", userID),
			zap.String("reason", reason),
			zap.Int("amount", amount),
			zap.Error(err))
	}
}

// Level maps accumulated points to a level, starting at 1.
func (s *GamificationService) Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/s.cfg.LevelStep + 1
}

// Badges derives profile badges from stats and points.
func (s *GamificationService) Badges(stats models.UserStats, points int) []string {
	badges := make([]string, 0, 4)
	if stats.Uploads >= 1 {
		badges = append(badges, "FIRST_UPLOAD")
	}
	if stats.Approved >= 10 {
		badges = append(badges, "TRUSTED_AUTHOR")
	}
	if stats.Followers >= 25 {
		badges = append(badges, "COMMUNITY_FAVORITE")
	}
	if points >= 5*s.cfg.LevelStep {
		badges = append(badges, "VETERAN")
	}
	return badges
}

// Leaderboard returns the top users by points with derived levels.
func (s *GamificationService) Leaderboard(ctx context.Context) ([]dto.LeaderboardEntry, error) {
	users, err := s.repo.Leaderboard(ctx, s.cfg.LeaderboardSize)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, dto.LeaderboardEntry{
			UserID:   user.ID,
			FullName: user.FullName,
			Points:   user.Points,
			Level:    s.Level(user.Points),
		})
	}
	return entries, nil
}
