package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/unishare/unishare-api/internal/dto"
	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/models"
)

type fakeDashboardSrv struct {
	called string
}

func (f *fakeDashboardSrv) Admin(context.Context, *models.JWTClaims) (*dto.AdminDashboardResponse, error) {
	f.called = "admin"
	return &dto.AdminDashboardResponse{TotalUsers: 5}, nil
}

func (f *fakeDashboardSrv) Director(context.Context, *models.JWTClaims) (*dto.DirectorDashboardResponse, error) {
	f.called = "director"
	return &dto.DirectorDashboardResponse{UniversityID: "uni-1"}, nil
}

func (f *fakeDashboardSrv) Professor(context.Context, *models.JWTClaims) (*dto.ProfessorDashboardResponse, error) {
	f.called = "professor"
	return &dto.ProfessorDashboardResponse{}, nil
}

func (f *fakeDashboardSrv) Student(context.Context, *models.JWTClaims) (*dto.StudentDashboardResponse, error) {
	f.called = "student"
	return &dto.StudentDashboardResponse{Points: 30}, nil
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Show(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerDispatchesByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		role   models.UserRole
		expect string
	}{
		{models.RoleAdmin, "admin"},
		{models.RoleDirector, "director"},
		{models.RoleProfessor, "professor"},
		{models.RoleStudent, "student"},
		{models.RoleOrdinary, "student"},
	}

	for _, tc := range cases {
		srv := &fakeDashboardSrv{}
		handler := NewDashboardHandler(srv)

		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: tc.role})

		handler.Show(c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tc.expect, srv.called, "role %s", tc.role)
	}
}

func TestDashboardHandlerAdminPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Show(c)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(5), envelope.Data["total_users"])
}
