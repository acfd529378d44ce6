package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/service"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

// UniversityHandler handles the university and course catalogue endpoints.
type UniversityHandler struct {
	service *service.UniversityService
}

// NewUniversityHandler creates a new university handler.
func NewUniversityHandler(svc *service.UniversityService) *UniversityHandler {
	return &UniversityHandler{service: svc}
}

// List godoc
// @Summary List universities
// @Tags Universities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /universities [get]
func (h *UniversityHandler) List(c *gin.Context) {
	universities, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, universities, nil)
}

// Get godoc
// @Summary University detail
// @Tags Universities
// @Produce json
// @Param id path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{id} [get]
func (h *UniversityHandler) Get(c *gin.Context) {
	university, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, university, nil)
}

// Create godoc
// @Summary Create university
// @Description Register a university. Admin only.
// @Tags Universities
// @Accept json
// @Produce json
// @Param payload body dto.CreateUniversityRequest true "University payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /universities [post]
func (h *UniversityHandler) Create(c *gin.Context) {
	var req dto.CreateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid university payload"))
		return
	}

	university, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, university)
}

// Update godoc
// @Summary Update university
// @Description Edit a university. Admin only.
// @Tags Universities
// @Accept json
// @Produce json
// @Param id path string true "University ID"
// @Param payload body dto.UpdateUniversityRequest true "University payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /universities/{id} [put]
func (h *UniversityHandler) Update(c *gin.Context) {
	var req dto.UpdateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid university payload"))
		return
	}

	university, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, university, nil)
}

// Delete godoc
// @Summary Delete university
// @Description Remove a university. Admin only.
// @Tags Universities
// @Produce json
// @Param id path string true "University ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /universities/{id} [delete]
func (h *UniversityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Directors godoc
// @Summary List directors
// @Description Directors associated with a university
// @Tags Universities
// @Produce json
// @Param id path string true "University ID"
// @Success 200 {object} response.Envelope
// @Router /universities/{id}/directors [get]
func (h *UniversityHandler) Directors(c *gin.Context) {
	directors, err := h.service.Directors(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, directors, nil)
}

// Courses godoc
// @Summary List courses
// @Tags Universities
// @Produce json
// @Param id path string true "University ID"
// @Success 200 {object} response.Envelope
// @Router /universities/{id}/courses [get]
func (h *UniversityHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// AddCourse godoc
// @Summary Add course
// @Description Add a course to the catalogue. Admin or the university's director.
// @Tags Universities
// @Accept json
// @Produce json
// @Param id path string true "University ID"
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /universities/{id}/courses [post]
func (h *UniversityHandler) AddCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.AddCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, course)
}

// RemoveCourse godoc
// @Summary Remove course
// @Description Remove a course from the catalogue. Admin or the university's director.
// @Tags Universities
// @Produce json
// @Param id path string true "University ID"
// @Param courseId path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /universities/{id}/courses/{courseId} [delete]
func (h *UniversityHandler) RemoveCourse(c *gin.Context) {
	if err := h.service.RemoveCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
