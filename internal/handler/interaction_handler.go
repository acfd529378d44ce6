package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/service"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

// InteractionHandler handles ratings, comments and the follow graph.
type InteractionHandler struct {
	ratings  *service.RatingService
	comments *service.CommentService
	follows  *service.FollowService
}

// NewInteractionHandler creates a new interaction handler.
func NewInteractionHandler(ratings *service.RatingService, comments *service.CommentService, follows *service.FollowService) *InteractionHandler {
	return &InteractionHandler{ratings: ratings, comments: comments, follows: follows}
}

// Rate godoc
// @Summary Rate document
// @Description Record or revise a 1-5 score on an approved document
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.RateDocumentRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/{id}/rating [post]
func (h *InteractionHandler) Rate(c *gin.Context) {
	var req dto.RateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}

	summary, err := h.ratings.Rate(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// RatingSummary godoc
// @Summary Rating summary
// @Description Average score and vote count of a document
// @Tags Interactions
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/rating [get]
func (h *InteractionHandler) RatingSummary(c *gin.Context) {
	summary, err := h.ratings.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// CreateComment godoc
// @Summary Comment on document
// @Description Add a comment, optionally as a reply to a top-level comment
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents/{id}/comments [post]
func (h *InteractionHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// ListComments godoc
// @Summary List comments
// @Description Comments of a document, replies nested under their parent
// @Tags Interactions
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/comments [get]
func (h *InteractionHandler) ListComments(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comments, nil)
}

// ReactToComment godoc
// @Summary React to comment
// @Description Register a like or dislike on a comment
// @Tags Interactions
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body dto.ReactCommentRequest true "Reaction payload"
// @Success 204 {object} response.Envelope
// @Router /comments/{id}/reaction [post]
func (h *InteractionHandler) ReactToComment(c *gin.Context) {
	var req dto.ReactCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reaction payload"))
		return
	}

	if err := h.comments.React(c.Request.Context(), claimsFromContext(c), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteComment godoc
// @Summary Delete comment
// @Description Remove a comment and its replies. Author or admin only.
// @Tags Interactions
// @Produce json
// @Param id path string true "Comment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /comments/{id} [delete]
func (h *InteractionHandler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ToggleFollow godoc
// @Summary Follow or unfollow
// @Description Flip the follow edge towards another user
// @Tags Interactions
// @Produce json
// @Param id path string true "Target user ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/{id}/follow [post]
func (h *InteractionHandler) ToggleFollow(c *gin.Context) {
	res, err := h.follows.Toggle(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Followers godoc
// @Summary List followers
// @Tags Interactions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/followers [get]
func (h *InteractionHandler) Followers(c *gin.Context) {
	users, err := h.follows.Followers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}

// Following godoc
// @Summary List followed users
// @Tags Interactions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/following [get]
func (h *InteractionHandler) Following(c *gin.Context) {
	users, err := h.follows.Following(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}
