package scanner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ravenshaw3/watch-media-server/internal/httputil"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRequestScanEndpoint(t *testing.T) {
	root := seedLibrary(t, "a.mkv")
	o := newTestOrchestrator(root, newFakeStore(), &fakeProber{}, &recordingBus{})
	router := NewHandler(o).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	waitForIdle(t, o)
}

func TestRequestScanEndpointConflict(t *testing.T) {
	root := seedLibrary(t, "a.mkv", "b.mkv")
	gate := make(chan struct{})
	o := newTestOrchestrator(root, newFakeStore(), &fakeProber{gate: gate}, &recordingBus{})
	router := NewHandler(o).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return o.Status().Status == StatusScanning
	}, 5*time.Second, 10*time.Millisecond)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(gate)
	waitForIdle(t, o)
}

func TestScanStatusEndpoint(t *testing.T) {
	root := seedLibrary(t, "a.mkv")
	o := newTestOrchestrator(root, newFakeStore(), &fakeProber{}, &recordingBus{})
	router := NewHandler(o).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	job, ok := data["job"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(StatusIdle), job["status"])
	assert.NotContains(t, data, "last_result")
}

func TestScanStatusIncludesLastResult(t *testing.T) {
	root := seedLibrary(t, "a.mkv")
	o := newTestOrchestrator(root, newFakeStore(), &fakeProber{}, &recordingBus{})
	router := NewHandler(o).Router()

	require.Equal(t, RequestStarted, o.RequestScan())
	waitForIdle(t, o)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	last, ok := data["last_result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(StatusCompleted), last["status"])
}

func TestCancelEndpointWhenIdle(t *testing.T) {
	o := newTestOrchestrator(t.TempDir(), newFakeStore(), &fakeProber{}, &recordingBus{})
	router := NewHandler(o).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelEndpointDuringScan(t *testing.T) {
	root := seedLibrary(t, "a.mkv", "b.mkv")
	gate := make(chan struct{})
	o := newTestOrchestrator(root, newFakeStore(), &fakeProber{gate: gate}, &recordingBus{})
	router := NewHandler(o).Router()

	require.Equal(t, RequestStarted, o.RequestScan())
	require.Eventually(t, func() bool {
		return o.Status().Status == StatusScanning
	}, 5*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cancel", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	close(gate)
	summary := waitForIdle(t, o)
	assert.Equal(t, StatusCancelled, summary.Status)
}
