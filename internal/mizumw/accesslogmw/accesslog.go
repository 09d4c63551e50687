// Package accesslogmw logs one record per request and tags the
// request context with a request id for every record logged while
// serving it.
package accesslogmw

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/humbornjo/mizuhello/internal/mizulog"
)

const HEADER_REQUEST_ID = "X-Request-Id"

type config struct {
	logger *slog.Logger
	level  slog.Level
	skip   map[string]struct{}
}

type Option func(*config)

// WithLogger sets the logger. Defaults to slog.Default() at call
// time.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLevel sets the level of access records. Defaults to info.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithSkipPaths disables access records for exact paths, e.g. the
// readiness probe.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skip[p] = struct{}{}
		}
	}
}

func New(opts ...Option) func(http.Handler) http.Handler {
	config := &config{level: slog.LevelInfo, skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(config)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HEADER_REQUEST_ID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx := mizulog.InjectContextAttrs(r.Context(), slog.String("request_id", requestID))
			r = r.WithContext(ctx)

			if _, ok := config.skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			logger := config.logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Log(ctx, config.level, "request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status(),
				"bytes", sw.bytes,
				"duration", time.Since(start),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Status is 200 when the handler never wrote a header.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
