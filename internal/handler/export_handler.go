package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/internal/service"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

type exportService interface {
	ModerationReport(ctx context.Context, claims *models.JWTClaims, universityID string, format models.ExportFormat) (*service.ExportResult, error)
	UserListing(ctx context.Context, claims *models.JWTClaims, format models.ExportFormat) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (string, string, time.Time, error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler renders downloadable CSV/PDF reports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Moderation godoc
// @Summary Moderation report
// @Description Generate a CSV or PDF report of review outcomes. Director or admin.
// @Tags Exports
// @Produce json
// @Param format query string false "csv or pdf"
// @Param university_id query string false "Scope (admin only)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /exports/moderation [post]
func (h *ExportHandler) Moderation(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))

	result, err := h.service.ModerationReport(c.Request.Context(), claimsFromContext(c), c.Query("university_id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Users godoc
// @Summary Account roster export
// @Description Generate a CSV or PDF listing of all accounts. Admin only.
// @Tags Exports
// @Produce json
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /exports/users [post]
func (h *ExportHandler) Users(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))

	result, err := h.service.UserListing(c.Request.Context(), claimsFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download export
// @Description Stream a generated report referenced by its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.service.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token"))
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found"))
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filepath.Base(relPath))
}
