package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type followRepository interface {
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	Create(ctx context.Context, followerID, followedID string) error
	Delete(ctx context.Context, followerID, followedID string) error
	ListFollowers(ctx context.Context, userID string) ([]models.User, error)
	ListFollowing(ctx context.Context, userID string) ([]models.User, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// FollowService maintains the directed follow graph.
type FollowService struct {
	follows      followRepository
	users        outboxUserRepository
	guard        *Guard
	outbox       outboxEnqueuer
	gamification *GamificationService
	logger       *zap.Logger
}

// NewFollowService constructs a FollowService.
func NewFollowService(follows followRepository, users outboxUserRepository, guard *Guard, outbox outboxEnqueuer, gamification *GamificationService, logger *zap.Logger) *FollowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowService{follows: follows, users: users, guard: guard, outbox: outbox, gamification: gamification, logger: logger}
}

// Toggle follows the target when no edge exists and unfollows otherwise.
// Self-follows are rejected.
func (s *FollowService) Toggle(ctx context.Context, claims *models.JWTClaims, targetID string) (*dto.FollowResponse, error) {
	actor, err := s.guard.Require(ctx, claims)
	if err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot follow yourself")
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !target.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	exists, err := s.follows.Exists(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check follow state")
	}

	if exists {
		if err := s.follows.Delete(ctx, actor.ID, target.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unfollow")
		}
		return &dto.FollowResponse{UserID: target.ID, Following: false}, nil
	}

	if err := s.follows.Create(ctx, actor.ID, target.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to follow")
	}
	s.gamification.AwardFollower(ctx, target.ID)
	s.outbox.Notify(ctx, target.ID, models.NotificationTypeNewFollower,
		"New follower",
		fmt.Sprintf("%s started following you.", actor.FullName),
		fmt.Sprintf("/users/%s", actor.ID))

	return &dto.FollowResponse{UserID: target.ID, Following: true}, nil
}

// Followers lists the users following the given user.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]models.User, error) {
	users, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list followers")
	}
	return users, nil
}

// Following lists the users the given user follows.
func (s *FollowService) Following(ctx context.Context, userID string) ([]models.User, error) {
	users, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list following")
	}
	return users, nil
}

// Counts returns (followers, following) for a user.
func (s *FollowService) Counts(ctx context.Context, userID string) (int, int, error) {
	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count followers")
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count following")
	}
	return followers, following, nil
}
