package accesslogmw_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbornjo/mizuhello/internal/mizulog"
	"github.com/humbornjo/mizuhello/internal/mizumw/accesslogmw"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(mizulog.New(mizulog.NewBackend(mizulog.FORMAT_JSON, buf), mizulog.WithLogLevel("debug")))
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		record := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		out = append(out, record)
	}
	return out
}

func TestAccessLogMw(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf)

	handler := accesslogmw.New(accesslogmw.WithLogger(logger))(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			logger.InfoContext(r.Context(), "inside handler")
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("Hello!"))
		}))

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set(accesslogmw.HEADER_REQUEST_ID, "req-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	got := records(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "inside handler", got[0]["msg"])
	assert.Equal(t, "req-1", got[0]["request_id"])

	assert.Equal(t, "request served", got[1]["msg"])
	assert.Equal(t, "req-1", got[1]["request_id"])
	assert.Equal(t, "GET", got[1]["method"])
	assert.Equal(t, "/hello", got[1]["path"])
	assert.EqualValues(t, http.StatusTeapot, got[1]["status"])
	assert.EqualValues(t, len("Hello!"), got[1]["bytes"])
}

func TestAccessLogMw_GeneratesRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := accesslogmw.New(accesslogmw.WithLogger(newLogger(buf)))(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello", nil))

	got := records(t, buf)
	require.Len(t, got, 1)
	assert.EqualValues(t, http.StatusOK, got[0]["status"])
	id, _ := got[0]["request_id"].(string)
	assert.Len(t, id, 36)
}

func TestAccessLogMw_SkipPaths(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := accesslogmw.New(
		accesslogmw.WithLogger(newLogger(buf)),
		accesslogmw.WithLevel(slog.LevelDebug),
		accesslogmw.WithSkipPaths("/healthz"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello", nil))
	got := records(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "DEBUG", got[0]["level"])
}
