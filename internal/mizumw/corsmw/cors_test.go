package corsmw_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/humbornjo/mizuhello/internal/mizumw/corsmw"
)

func TestCorsMw(t *testing.T) {
	testCases := []struct {
		name         string
		opts         []corsmw.Option
		expectOrigin string
		expectVary   string
	}{
		{name: "wildcard by default", expectOrigin: "*"},
		{
			name:         "explicit origin",
			opts:         []corsmw.Option{corsmw.WithOrigin("https://example.com")},
			expectOrigin: "https://example.com",
			expectVary:   "Origin",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := corsmw.New(tc.opts...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hello", nil))
			assert.Equal(t, tc.expectOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.expectVary, rr.Header().Get("Vary"))
		})
	}
}
