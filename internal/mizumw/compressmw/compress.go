package compressmw

import (
	"compress/gzip"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const _ENCODING_GZIP = "gzip"

var _DEFAULT_CONTENT_TYPES = []string{
	"text/*",
	"application/json",
	"application/xml",
}

type config struct {
	level        int
	contentTypes map[string]struct{}
	wildcards    map[string]struct{}
}

type Option func(*config)

// WithLevel sets the gzip compression level, see compress/gzip.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithContentTypes replaces the compressible content types. A
// trailing "/*" matches every subtype.
func WithContentTypes(types ...string) Option {
	return func(c *config) {
		c.contentTypes = map[string]struct{}{}
		c.wildcards = map[string]struct{}{}
		addContentTypes(c, types)
	}
}

func addContentTypes(c *config, types []string) {
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if prefix, ok := strings.CutSuffix(t, "/*"); ok {
			c.wildcards[prefix] = struct{}{}
			continue
		}
		c.contentTypes[t] = struct{}{}
	}
}

// New returns a middleware that gzips compressible responses when
// the client lists gzip in Accept-Encoding.
func New(opts ...Option) func(http.Handler) http.Handler {
	config := &config{
		level:        gzip.DefaultCompression,
		contentTypes: map[string]struct{}{},
		wildcards:    map[string]struct{}{},
	}
	addContentTypes(config, _DEFAULT_CONTENT_TYPES)
	for _, opt := range opts {
		opt(config)
	}
	if _, err := gzip.NewWriterLevel(nil, config.level); err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httpguts.HeaderValuesContainsToken(r.Header["Accept-Encoding"], _ENCODING_GZIP) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w, config: config}
			defer gw.Close() // nolint: errcheck
			next.ServeHTTP(gw, r)
		})
	}
}
