package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/parcel-delay-service/internal/adapter/http"
	"github.com/couchcryptid/parcel-delay-service/internal/dataset"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/notify"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
	"github.com/couchcryptid/parcel-delay-service/internal/probe"
	"github.com/couchcryptid/parcel-delay-service/internal/store/memory"
	"github.com/couchcryptid/parcel-delay-service/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	tr, err := i18n.New(i18n.English)
	require.NoError(t, err)
	feed := notify.NewCenter(metrics)
	wp := probe.New(nil, probe.NewHubOverride(21.1458, 79.0882), metrics, logger)
	eval := pipeline.New(wp, feed, nil, tr, logger, metrics)
	session := tracking.New(memory.New(dataset.Default()), eval, feed, tr, tracking.Options{}, logger, metrics)

	return httpadapter.NewServer(":0", session, &mockReadiness{err: readyErr}, logger)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(t, fmt.Errorf("database unreachable")), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSessionStartsEmpty(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[tracking.Snapshot](t, rec)
	assert.Equal(t, tracking.StateNoActiveParcel, snap.State)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, i18n.English, snap.Language)
}

func TestSearchFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"IP123456789IN"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[tracking.Snapshot](t, rec)
	assert.Equal(t, tracking.StateParcelActive, snap.State)
	require.NotNil(t, snap.Active)
	assert.Equal(t, "IP123456789IN", snap.Active.TrackingID)
	assert.Equal(t, 2, snap.UnreadCount)
}

func TestSearchNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"ZZUNKNOWN"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Tracking ID not found. Please check and try again.", body["error"])
}

func TestSearchInvalidBody(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/session/search", `{"unknown_field":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchBlankResetsError(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"ZZUNKNOWN"}`)

	rec := do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[tracking.Snapshot](t, rec)
	assert.Equal(t, tracking.StateNoActiveParcel, snap.State)
	assert.Empty(t, snap.Error)
}

func TestForecastRequiresActiveParcel(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/session/forecast", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"IP555666777IN"}`)
	rec = do(t, srv, http.MethodGet, "/api/v1/session/forecast", "")
	require.Equal(t, http.StatusOK, rec.Code)

	fc := decode[tracking.Forecast](t, rec)
	assert.Equal(t, 8, fc.Prediction.DelayHours)
	assert.Equal(t, "minorDelay", string(fc.Label))
}

func TestProgress(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/session/progress", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"IP456789123IN"}`)
	rec = do(t, srv, http.MethodGet, "/api/v1/session/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)

	p := decode[tracking.Progress](t, rec)
	assert.Equal(t, 0, p.Step)
	assert.Equal(t, "Collected", p.StatusText)
}

func TestNotificationsAndMarkRead(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/api/v1/session/search", `{"tracking_id":"IP123456789IN"}`)

	rec := do(t, srv, http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var feed struct {
		Items []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
			Read    bool   `json:"read"`
		} `json:"items"`
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Items, 2)
	assert.Contains(t, feed.Items[0].Message, "IP123456789IN")
	assert.Equal(t, 2, feed.UnreadCount)

	for range 2 {
		rec = do(t, srv, http.MethodPost, "/api/v1/notifications/"+feed.Items[0].ID+"/read", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/v1/notifications/unknown/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap := decode[tracking.Snapshot](t, do(t, srv, http.MethodGet, "/api/v1/session", ""))
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestSetLanguage(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPut, "/api/v1/session/language", `{"language":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, i18n.Hindi, decode[tracking.Snapshot](t, rec).Language)

	rec = do(t, srv, http.MethodPut, "/api/v1/session/language", `{"language":"FR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownMethodRejected(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodDelete, "/api/v1/session", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
