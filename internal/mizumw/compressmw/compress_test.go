package compressmw_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbornjo/mizuhello/internal/mizumw/compressmw"
)

func sendTestRequest(handler http.Handler, acceptedEncodings string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptedEncodings != "" {
		req.Header.Set("Accept-Encoding", acceptedEncodings)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func contentHandler(contentType, content string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = io.WriteString(w, content)
	})
}

func TestCompressMw(t *testing.T) {
	testCases := []struct {
		name              string
		opts              []compressmw.Option
		acceptedEncodings string
		contentType       string
		content           string
		expectEncoding    string
	}{
		{
			name:              "plain text is gzipped",
			acceptedEncodings: "gzip, deflate",
			contentType:       "text/plain; charset=utf-8",
			content:           "Hello!, John",
			expectEncoding:    "gzip",
		},
		{
			name:              "json is gzipped",
			acceptedEncodings: "gzip",
			contentType:       "application/json",
			content:           `{"openapi":"3.0.3"}`,
			expectEncoding:    "gzip",
		},
		{
			name:              "client without gzip",
			acceptedEncodings: "deflate",
			contentType:       "text/plain",
			content:           "Hello!",
			expectEncoding:    "",
		},
		{
			name:              "no accept encoding",
			contentType:       "text/plain",
			content:           "Hello!",
			expectEncoding:    "",
		},
		{
			name:              "unsupported content type",
			acceptedEncodings: "gzip",
			contentType:       "application/octet-stream",
			content:           "binary data",
			expectEncoding:    "",
		},
		{
			name:              "detected content type",
			acceptedEncodings: "gzip",
			content:           "Hello!",
			expectEncoding:    "gzip",
		},
		{
			name:              "custom content types",
			opts:              []compressmw.Option{compressmw.WithContentTypes("application/octet-stream")},
			acceptedEncodings: "gzip",
			contentType:       "application/octet-stream",
			content:           "binary data",
			expectEncoding:    "gzip",
		},
		{
			name:              "best speed level",
			opts:              []compressmw.Option{compressmw.WithLevel(gzip.BestSpeed)},
			acceptedEncodings: "gzip",
			contentType:       "text/plain",
			content:           "Hello!",
			expectEncoding:    "gzip",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := compressmw.New(tc.opts...)(contentHandler(tc.contentType, tc.content))
			rr := sendTestRequest(handler, tc.acceptedEncodings)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.expectEncoding, rr.Header().Get("Content-Encoding"))

			if tc.expectEncoding == "" {
				assert.Equal(t, tc.content, rr.Body.String())
				return
			}

			assert.Equal(t, "Accept-Encoding", rr.Header().Get("Vary"))
			gr, err := gzip.NewReader(rr.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(gr)
			require.NoError(t, err)
			assert.Equal(t, tc.content, string(body))
		})
	}
}

func TestCompressMw_InvalidLevelPanics(t *testing.T) {
	assert.Panics(t, func() { compressmw.New(compressmw.WithLevel(42)) })
}

func TestCompressMw_NoContent(t *testing.T) {
	handler := compressmw.New()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := sendTestRequest(handler, "gzip")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Zero(t, rr.Body.Len())
}
