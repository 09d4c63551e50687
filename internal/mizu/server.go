package mizu

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Option configures the mizu server.
type Option func(*Server)

type serverConfig struct {
	ShutdownPeriod        time.Duration
	ShutdownHardPeriod    time.Duration
	ReadinessDrainDelay   time.Duration
	ReadinessPath         string
	WizardHandleReadiness func(isShuttingDown *atomic.Bool) http.HandlerFunc
}

// Server routes requests through an http.ServeMux, applies the
// registered middlewares and owns the graceful shutdown sequence.
type Server struct {
	mux         *http.ServeMux
	mu          *sync.Mutex
	initialized bool
	middlewares []func(http.Handler) http.Handler
	routes      []string

	name           string
	config         serverConfig
	logger         *slog.Logger
	isShuttingDown atomic.Bool
	hookOnStartup  []func(*Server)
}

// Name returns the name of the server.
func (s *Server) Name() string {
	return s.name
}

// Use appends a middleware. Middlewares wrap the whole mux and run in
// the order they are added.
func (s *Server) Use(middleware func(http.Handler) http.Handler) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.middlewares = append(s.middlewares, middleware)
	return s
}

// Handle registers an HTTP handler for the given pattern.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.HandleFunc(pattern, handler.ServeHTTP)
}

// HandleFunc registers an HTTP handler function for the given pattern.
// Patterns follow http.ServeMux syntax, so "GET /hello/{name}" is
// valid.
func (s *Server) HandleFunc(pattern string, handlerFunc http.HandlerFunc) {
	s.mu.Lock()
	s.routes = append(s.routes, pattern)
	s.mu.Unlock()

	s.mux.HandleFunc(pattern, handlerFunc)
}

// Get registers handler for GET requests to given pattern.
func (s *Server) Get(pattern string, handler http.HandlerFunc) {
	s.HandleFunc(http.MethodGet+" "+pattern, handler)
}

// Post registers handler for POST requests to given pattern.
func (s *Server) Post(pattern string, handler http.HandlerFunc) {
	s.HandleFunc(http.MethodPost+" "+pattern, handler)
}

// Routes returns the registered patterns, sorted by path.
func (s *Server) Routes() []string {
	s.mu.Lock()
	routes := slices.Clone(s.routes)
	s.mu.Unlock()

	slices.SortFunc(routes, func(a, b string) int {
		return strings.Compare(routePath(a), routePath(b))
	})
	return routes
}

// HookOnStartup registers a hook called right before the server
// starts listening, in registration order.
func (s *Server) HookOnStartup(hook func(*Server)) {
	s.hookOnStartup = append(s.hookOnStartup, hook)
}

// IsShuttingDown reports whether the shutdown sequence has begun.
func (s *Server) IsShuttingDown() bool {
	return s.isShuttingDown.Load()
}

// Handler returns the mux without middlewares. The readiness route is
// mounted on first call.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	mount := !s.initialized
	s.initialized = true
	s.mu.Unlock()

	if mount {
		s.HandleFunc(
			s.config.ReadinessPath,
			s.config.WizardHandleReadiness(&s.isShuttingDown),
		)
	}
	return s.mux
}

// Middleware returns a function composing all registered middlewares
// around a handler. The first registered middleware is the outermost.
func (s *Server) Middleware() func(http.Handler) http.Handler {
	s.mu.Lock()
	middlewares := slices.Clone(s.middlewares)
	s.mu.Unlock()

	return func(handler http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// ServeContext listens on addr and serves until ctx is cancelled.
func (s *Server) ServeContext(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// readiness, waits for in-flight requests and cancels the rest.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ingCtx, ingCancel := context.WithCancel(context.Background())
	defer ingCancel()

	server := &http.Server{
		Handler:           s.Middleware()(s.Handler()),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       300 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ingCtx
		},
	}

	s.logger.Info("starting HTTP server", "server", s.name, "addr", ln.Addr().String())
	for _, hook := range s.hookOnStartup {
		hook(s)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server exited unexpectedly", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// Serve failed, nothing left to drain
			return server.Close()
		}
		return s.shutdown(server, ingCancel)
	})
	return g.Wait()
}

func (s *Server) shutdown(server *http.Server, cancelInflight context.CancelFunc) error {
	s.isShuttingDown.Store(true)
	s.logger.Info("draining readiness before shutdown", "delay", s.config.ReadinessDrainDelay)
	<-time.After(s.config.ReadinessDrainDelay)

	downCtx, downCancel := context.WithTimeout(context.Background(), s.config.ShutdownPeriod)
	defer downCancel()
	err := server.Shutdown(downCtx)
	cancelInflight()

	if err != nil {
		s.logger.Warn("graceful shutdown failed", "error", err)
		time.Sleep(s.config.ShutdownHardPeriod)
		return err
	}
	s.logger.Info("server shut down gracefully")
	return nil
}

func routePath(pattern string) string {
	if fields := strings.Fields(pattern); len(fields) == 2 {
		return fields[1]
	}
	return pattern
}
