package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/models"
)

func TestAuthHandlerLoginRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeReturnsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:   "user-1",
		Email:    "user@example.edu",
		FullName: "Test User",
		Role:     models.RoleStudent,
	})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "user-1", envelope.Data["id"])
	assert.Equal(t, "STUDENT", envelope.Data["role"])
}

func TestDocumentHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("title=Notes"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
