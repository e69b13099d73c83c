package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(Config{ServiceName: "gap-scanner", Version: "test"})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProbeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "gap-scanner", resp.Service)
	assert.Equal(t, "test", resp.Version)
}

func TestHandleReadyNotReady(t *testing.T) {
	srv := NewServer(Config{ServiceName: "gap-scanner"})

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "not_ready", resp.Checks["service"])
}

func TestHandleReadyDatabaseFailure(t *testing.T) {
	srv := NewServer(Config{ServiceName: "gap-scanner", DB: &stubPinger{err: errors.New("connection refused")}})
	srv.SetReady(true)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["service"])
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestHandleReadyHealthy(t *testing.T) {
	srv := NewServer(Config{ServiceName: "gap-scanner", DB: &stubPinger{}})
	srv.SetReady(true)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
}
