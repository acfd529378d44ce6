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

// DocumentHandler handles upload, browsing, moderation and download endpoints.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Upload godoc
// @Summary Upload document
// @Description Upload a file with its metadata as multipart form data
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param course formData string false "Course"
// @Param subject formData string false "Subject"
// @Param approval_tag formData string false "Routing tag"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req dto.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload fields"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(c.Request.Context(), claimsFromContext(c), req, file,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// List godoc
// @Summary Browse documents
// @Description List documents with filters. Non-moderators only see approved ones.
// @Tags Documents
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param university_id query string false "University filter"
// @Param course query string false "Course filter"
// @Param subject query string false "Subject filter"
// @Param tag query string false "Tag filter"
// @Param author_id query string false "Author filter"
// @Param status query string false "Status filter (moderators only)"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var filter models.DocumentFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if status := c.Query("status"); status != "" {
		s := models.ReviewStatus(status)
		filter.Status = &s
	}
	filter.UniversityID = c.Query("university_id")
	filter.Course = c.Query("course")
	filter.Subject = c.Query("subject")
	filter.Tag = c.Query("tag")
	filter.AuthorID = c.Query("author_id")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	docs, total, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Document detail
// @Description Returns one document. Pending ones are visible to the author and moderators only.
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// Moderate godoc
// @Summary Approve or reject document
// @Description Record a moderation decision, optionally with a grade
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ModerateDocumentRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id}/moderate [post]
func (h *DocumentHandler) Moderate(c *gin.Context) {
	var req dto.ModerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	doc, err := h.service.Moderate(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// DownloadURL godoc
// @Summary Signed download link
// @Description Issue a signed, expiring download token
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	link, err := h.service.DownloadURL(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download file
// @Description Stream the blob referenced by a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, file, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.FileType, file, map[string]string{
		"Content-Disposition": `attachment; filename="` + doc.Title + `"`,
	})
}

// Delete godoc
// @Summary Delete document
// @Description Remove a document and its blob. Author or admin only.
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ToggleFavorite godoc
// @Summary Toggle favorite
// @Description Flip the caller's favorite mark on a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/favorite [post]
func (h *DocumentHandler) ToggleFavorite(c *gin.Context) {
	res, err := h.service.ToggleFavorite(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// ListFavorites godoc
// @Summary List favorites
// @Description Documents the caller marked as favorite
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents/favorites [get]
func (h *DocumentHandler) ListFavorites(c *gin.Context) {
	docs, err := h.service.ListFavorites(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs, nil)
}
