package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context, claims *models.JWTClaims) (*dto.AdminDashboardResponse, error)
	Director(ctx context.Context, claims *models.JWTClaims) (*dto.DirectorDashboardResponse, error)
	Professor(ctx context.Context, claims *models.JWTClaims) (*dto.ProfessorDashboardResponse, error)
	Student(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboardResponse, error)
}

// DashboardHandler serves the role-specific landing payload.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Show godoc
// @Summary Role dashboard
// @Description Returns the dashboard matching the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Show(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var (
		payload interface{}
		err     error
	)
	switch claims.Role {
	case models.RoleAdmin:
		payload, err = h.service.Admin(c.Request.Context(), claims)
	case models.RoleDirector:
		payload, err = h.service.Director(c.Request.Context(), claims)
	case models.RoleProfessor:
		payload, err = h.service.Professor(c.Request.Context(), claims)
	default:
		payload, err = h.service.Student(c.Request.Context(), claims)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payload, nil)
}
