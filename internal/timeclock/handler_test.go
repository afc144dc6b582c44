package timeclock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKioskRouter(t *testing.T, now time.Time) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, mock, _, _ := newTestService(t, now)
	r := gin.New()
	RegisterKioskRoutes(r, svc)
	return r, mock
}

func TestServerTimeEndpoint(t *testing.T) {
	now := at("10:30:00")
	r, _ := newKioskRouter(t, now)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/time", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res ServerTimeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, now.UnixMilli(), res.Timestamp)
	assert.Equal(t, "2026-08-31", res.Date)
	assert.Equal(t, "10:30:00", res.Clock)
}

func TestCheckInRejectsMissingPIN(t *testing.T) {
	r, mock := newKioskRouter(t, at("10:30:00"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// DB には触らない
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	var body errorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeInvalidArgument, body.Error.Code)
}

func TestCheckInRejectsMalformedJSON(t *testing.T) {
	r, _ := newKioskRouter(t, at("10:30:00"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader(`{"pin": `))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
