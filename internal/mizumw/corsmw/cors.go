package corsmw

import "net/http"

type config struct {
	origin string
}

type Option func(*config)

// WithOrigin sets Access-Control-Allow-Origin. Defaults to "*".
func WithOrigin(origin string) Option {
	return func(c *config) {
		c.origin = origin
	}
}

// New lets browsers on other origins read GET responses.
func New(opts ...Option) func(http.Handler) http.Handler {
	config := &config{origin: "*"}
	for _, opt := range opts {
		opt(config)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", config.origin)
			if config.origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			next.ServeHTTP(w, r)
		})
	}
}
