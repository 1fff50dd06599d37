package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard/darts-server/internal/rtc"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIssueRTCToken(t *testing.T) {
	handler := IssueRTCToken(rtc.NewIssuer("app-1", "cert-secret", time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rtc/token", strings.NewReader(`{"channelName":"lobby-1","uid":"u1"}`))
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"channelName":"lobby-1"`)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/rtc/token", strings.NewReader(`{"uid":"u1"}`))
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueRTCToken_NotConfigured(t *testing.T) {
	handler := IssueRTCToken(rtc.NewIssuer("", "", time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rtc/token", strings.NewReader(`{"channelName":"lobby-1"}`))
	handler(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
