package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
)

type guardUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Guard resolves JWT claims to a fresh profile and enforces role membership.
// Services re-check scope against the loaded entity after calling Require.
type Guard struct {
	repo   guardUserRepository
	logger *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(repo guardUserRepository, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{repo: repo, logger: logger}
}

// Require loads the actor behind the claims and checks it holds one of the
// given roles. An empty role set only requires an authenticated, active user.
func (g *Guard) Require(ctx context.Context, claims *models.JWTClaims, roles ...models.UserRole) (*models.User, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}

	user, err := g.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load actor")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}
	if user.Role.Elevated() && !user.Approved {
		return nil, appErrors.Clone(appErrors.ErrPendingApproval, "account is awaiting approval")
	}

	if len(roles) == 0 {
		return user, nil
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "role not allowed for this operation")
}

// RequireScope enforces university scoping for directors and professors.
// Admins operate platform-wide.
func (g *Guard) RequireScope(actor *models.User, universityID *string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !actor.Role.UniversityScoped() {
		return nil
	}
	// Resources without a university association are platform-wide.
	if universityID == nil {
		return nil
	}
	if actor.UniversityID == nil || *actor.UniversityID != *universityID {
		return appErrors.Clone(appErrors.ErrScopeMismatch, "resource belongs to another university")
	}
	return nil
}
