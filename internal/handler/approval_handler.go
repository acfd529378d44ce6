package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/internal/service"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

// ApprovalHandler handles the approval workflow endpoints.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Create godoc
// @Summary Open approval request
// @Description Request a role elevation or a university association
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body dto.CreateApprovalRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals [post]
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req dto.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	request, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// Decide godoc
// @Summary Decide approval request
// @Description Approve or reject a pending request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideApprovalRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/decision [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	var req dto.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	request, err := h.service.Decide(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// List godoc
// @Summary List approval requests
// @Description Requests visible to the caller: own ones, or queues addressed to them
// @Tags Approvals
// @Produce json
// @Param kind query string false "Kind filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	var filter models.ApprovalRequestFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if kind := c.Query("kind"); kind != "" {
		k := models.ApprovalRequestKind(kind)
		filter.Kind = &k
	}
	if status := c.Query("status"); status != "" {
		s := models.ReviewStatus(status)
		filter.Status = &s
	}

	requests, total, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}
