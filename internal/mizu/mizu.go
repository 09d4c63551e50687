package mizu

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	_READINESS_DRAIN_DELAY = 5 * time.Second
	_SHUTDOWN_PERIOD       = 15 * time.Second
	_SHUTDOWN_HARD_PERIOD  = 3 * time.Second
)

var _DEFAULT_SERVER_CONFIG = serverConfig{
	ShutdownPeriod:      _SHUTDOWN_PERIOD,
	ShutdownHardPeriod:  _SHUTDOWN_HARD_PERIOD,
	ReadinessDrainDelay: _READINESS_DRAIN_DELAY,
	ReadinessPath:       "GET /healthz",
	WizardHandleReadiness: func(isShuttingDown *atomic.Bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if isShuttingDown.Load() {
				http.Error(w, "Shutting down", http.StatusServiceUnavailable)
				return
			}
			_, _ = fmt.Fprintln(w, "OK")
		}
	},
}

// NewServer creates a server named srvName. Defaults: 5s readiness
// drain delay, 15s graceful shutdown and 3s hard shutdown.
func NewServer(srvName string, opts ...Option) *Server {
	server := &Server{
		mux:    http.NewServeMux(),
		mu:     &sync.Mutex{},
		name:   srvName,
		config: _DEFAULT_SERVER_CONFIG,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(server)
	}
	return server
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadinessDrainDelay sets the delay before starting graceful
// shutdown, giving load balancers time to observe the failing
// readiness check.
func WithReadinessDrainDelay(d time.Duration) Option {
	return func(s *Server) {
		s.config.ReadinessDrainDelay = d
	}
}

// WithShutdownPeriod sets how long in-flight requests may take to
// finish once shutdown starts.
func WithShutdownPeriod(d time.Duration) Option {
	return func(s *Server) {
		s.config.ShutdownPeriod = d
	}
}

// WithHardShutdownPeriod sets the final wait after a failed graceful
// shutdown.
func WithHardShutdownPeriod(d time.Duration) Option {
	return func(s *Server) {
		s.config.ShutdownHardPeriod = d
	}
}

// WithPrometheusMetrics mounts /metrics. A nil gatherer falls back to
// the default prometheus registry.
func WithPrometheusMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		if gatherer == nil {
			s.Handle("GET /metrics", promhttp.Handler())
			return
		}
		s.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// WithWizardHandleReadiness replaces the readiness handler. The
// wizard receives the shutdown flag of the server.
func WithWizardHandleReadiness(pattern string, wizard func(*atomic.Bool) http.HandlerFunc) Option {
	return func(s *Server) {
		s.config.ReadinessPath = pattern
		s.config.WizardHandleReadiness = wizard
	}
}

// WithProfilingHandlers mounts the pprof endpoints under
// /debug/pprof/. Keep it off outside development.
func WithProfilingHandlers() Option {
	return func(s *Server) {
		s.HandleFunc("/debug/pprof/", pprof.Index)
		s.HandleFunc("/debug/pprof/trace", pprof.Trace)
		s.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		s.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		s.HandleFunc("/debug/pprof/profile", pprof.Profile)
		s.Handle("/debug/pprof/heap", pprof.Handler("heap"))
		s.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	}
}

// WithRevealRoutes logs every registered route right before the
// server starts listening.
func WithRevealRoutes() Option {
	return func(s *Server) {
		s.HookOnStartup(func(s *Server) {
			for _, route := range s.Routes() {
				method, uri := "*", route
				if fields := strings.Fields(route); len(fields) == 2 {
					method, uri = fields[0], fields[1]
				}
				s.logger.Info("route registered", "method", method, "path", uri)
			}
		})
	}
}
