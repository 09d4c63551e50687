package recovermw

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

type config struct {
	logger   *slog.Logger
	maxBytes int
}

type Option func(*config)

// WithMaxBytes truncates the logged stack trace.
func WithMaxBytes(maxBytes int) Option {
	return func(c *config) {
		c.maxBytes = maxBytes
	}
}

// WithLogger sets the logger panics are reported to. Defaults to
// slog.Default() at call time.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New returns a middleware turning a handler panic into a 500 and an
// error record carrying the trimmed stack.
func New(opts ...Option) func(http.Handler) http.Handler {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bad := true // panic(nil) still has to be caught
			defer func() {
				if !bad {
					return
				}

				rcv := recover()
				// the client connection is aborted on purpose, let net/http handle it
				if rcv == http.ErrAbortHandler {
					panic(rcv)
				}

				stack := debug.Stack()
				if config.maxBytes > 0 && len(stack) > config.maxBytes {
					stack = stack[:config.maxBytes]
				}

				logger := config.logger
				if logger == nil {
					logger = slog.Default()
				}
				logger.ErrorContext(r.Context(), "handler panicked",
					"panic", fmt.Sprint(rcv),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", trimStack(string(stack)),
				)

				if r.Header.Get("Connection") != "Upgrade" {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
			bad = false
		})
	}
}

// trimStack drops the frames above the innermost panic call.
func trimStack(stack string) string {
	lines := strings.Split(stack, "\n")
	for i := len(lines) - 1; i > 0; i-- {
		if strings.HasPrefix(lines[i], "panic(") {
			// skip "panic(...)" and its file line
			if i+2 <= len(lines) {
				return strings.Join(lines[i+2:], "\n")
			}
			break
		}
	}
	return stack
}
