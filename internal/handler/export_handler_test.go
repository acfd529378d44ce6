package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/internal/service"
)

type fakeExportSrv struct {
	lastUniversity string
	lastFormat     models.ExportFormat
	parseErr       error
}

func (f *fakeExportSrv) ModerationReport(_ context.Context, _ *models.JWTClaims, universityID string, format models.ExportFormat) (*service.ExportResult, error) {
	f.lastUniversity = universityID
	f.lastFormat = format
	return &service.ExportResult{Token: "tok", URL: "/api/v1/exports/download/tok", Format: format}, nil
}

func (f *fakeExportSrv) UserListing(_ context.Context, _ *models.JWTClaims, format models.ExportFormat) (*service.ExportResult, error) {
	f.lastFormat = format
	return &service.ExportResult{Token: "tok", Format: format}, nil
}

func (f *fakeExportSrv) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	if f.parseErr != nil {
		return "", "", time.Time{}, f.parseErr
	}
	return "USERS", "exports/users.csv", time.Now().Add(time.Minute), nil
}

func (f *fakeExportSrv) Open(relPath string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func TestExportHandlerModerationDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/exports/moderation?university_id=uni-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Moderation(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ExportFormatCSV, srv.lastFormat)
	assert.Equal(t, "uni-1", srv.lastUniversity)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "tok", envelope.Data["token"])
}

func TestExportHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExportSrv{parseErr: errors.New("invalid token signature")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
