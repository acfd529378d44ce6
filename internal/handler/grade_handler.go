package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/service"
	"github.com/unishare/unishare-api/pkg/response"
)

// GradeHandler handles grade listing endpoints. Grades are written as part of
// document moderation, not through a dedicated endpoint.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler creates a new grade handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// ListMine godoc
// @Summary My grades
// @Description Grades received on the caller's documents
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/me [get]
func (h *GradeHandler) ListMine(c *gin.Context) {
	grades, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grades, nil)
}

// ListIssued godoc
// @Summary Issued grades
// @Description Grades the professor attached while moderating
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/issued [get]
func (h *GradeHandler) ListIssued(c *gin.Context) {
	grades, err := h.service.ListIssued(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grades, nil)
}
