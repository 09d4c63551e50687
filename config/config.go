package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/humbornjo/mizuhello/internal/mizu"
	"github.com/humbornjo/mizuhello/internal/mizudi"
	"github.com/humbornjo/mizuhello/internal/mizulog"
	"github.com/humbornjo/mizuhello/internal/mizumw/accesslogmw"
	"github.com/humbornjo/mizuhello/internal/mizumw/compressmw"
	"github.com/humbornjo/mizuhello/internal/mizumw/corsmw"
	"github.com/humbornjo/mizuhello/internal/mizumw/recovermw"
	"github.com/humbornjo/mizuhello/internal/mizuotel"
)

const ServiceName = "mizuhello"

type Config struct {
	Env       string       `yaml:"env"`
	Level     string       `yaml:"level"`
	LogFormat string       `yaml:"log_format"`
	Server    ServerConfig `yaml:"server"`
	Otel      OtelConfig   `yaml:"otel"`

	Version string `yaml:"-"`
}

type ServerConfig struct {
	Addr                string        `yaml:"addr"`
	ReadinessDrainDelay time.Duration `yaml:"readiness_drain_delay"`
	ShutdownPeriod      time.Duration `yaml:"shutdown_period"`
	HardShutdownPeriod  time.Duration `yaml:"hard_shutdown_period"`
	Metrics             bool          `yaml:"metrics"`
	Profiling           bool          `yaml:"profiling"`
	RevealRoutes        bool          `yaml:"reveal_routes"`
	Compress            bool          `yaml:"compress"`
	CorsOrigin          string        `yaml:"cors_origin"`
}

type OtelConfig struct {
	Enabled bool `yaml:"enabled"`
}

var _DEFAULT_CONFIG = Config{
	Env:       "development",
	Level:     "info",
	LogFormat: mizulog.FORMAT_TEXT,
	Server: ServerConfig{
		Addr:                ":8080",
		ReadinessDrainDelay: 5 * time.Second,
		ShutdownPeriod:      15 * time.Second,
		HardShutdownPeriod:  3 * time.Second,
		Metrics:             true,
		RevealRoutes:        true,
	},
}

type Option func(*options)

type options struct {
	diOpts    []mizudi.Option
	overrides [][2]string
	logWriter io.Writer
	version   string
}

// WithLoadPaths sets the YAML files to load.
func WithLoadPaths(paths ...string) Option {
	return func(o *options) {
		if len(paths) > 0 {
			o.diOpts = append(o.diOpts, mizudi.WithLoadPaths(paths...))
		}
	}
}

// WithEnvPrefix changes the environment prefix, mostly for tests.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.diOpts = append(o.diOpts, mizudi.WithEnvPrefix(prefix))
	}
}

// WithOverride sets key to value on top of files and environment.
// Used for command-line flags.
func WithOverride(key, value string) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, [2]string{key, value})
	}
}

// WithLogWriter sets where logs go. Defaults to stderr.
func WithLogWriter(tx io.Writer) Option {
	return func(o *options) {
		o.logWriter = tx
	}
}

// WithVersion sets the build version reported by telemetry and the
// API document.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

func newOptions(opts []Option) *options {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads the configuration without building anything else.
func Load(opts ...Option) (*mizudi.Container, *Config, error) {
	return load(newOptions(opts))
}

func load(o *options) (*mizudi.Container, *Config, error) {
	c, err := mizudi.New(o.diOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	for _, kv := range o.overrides {
		if err := c.Set(kv[0], kv[1]); err != nil {
			return nil, nil, fmt.Errorf("override %s: %w", kv[0], err)
		}
	}

	cfg, err := mizudi.Enchant(c, "", &_DEFAULT_CONFIG)
	if err != nil {
		return nil, nil, err
	}
	cfg.Version = o.version
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// Validate checks values koanf cannot type-check.
func (c *Config) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(normalizeLevel(c.Level))); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}

	switch strings.ToLower(c.LogFormat) {
	case mizulog.FORMAT_TEXT, mizulog.FORMAT_JSON:
	default:
		return fmt.Errorf("invalid log_format %q: want %q or %q", c.LogFormat, mizulog.FORMAT_TEXT, mizulog.FORMAT_JSON)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// Initialize loads the configuration and registers the shared
// infrastructure in the returned container: *Config, *slog.Logger,
// *prometheus.Registry, *mizu.Server and, when enabled,
// *mizuotel.Telemetry. Services are initialized by the caller.
func Initialize(opts ...Option) (*mizudi.Container, error) {
	o := newOptions(opts)
	c, cfg, err := load(o)
	if err != nil {
		return nil, err
	}
	mizudi.RegisterValue(c, cfg)

	// Logging ----------------------------------------------------
	logger := mizulog.Initialize(
		mizulog.NewBackend(cfg.LogFormat, o.logWriter),
		mizulog.WithLogLevel(normalizeLevel(cfg.Level)),
		mizulog.WithAttributes(slog.String("service", ServiceName), slog.String("env", cfg.Env)),
	)
	mizudi.RegisterValue(c, logger)

	// Metrics ----------------------------------------------------
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mizudi.RegisterValue(c, registry)

	// Opentelemetry ----------------------------------------------
	if cfg.Otel.Enabled {
		telemetry, err := mizuotel.Initialize(
			mizuotel.WithServiceName(ServiceName),
			mizuotel.WithServiceVersion(cfg.Version),
			mizuotel.WithEnvironment(cfg.Env),
		)
		if err != nil {
			return nil, fmt.Errorf("initialize opentelemetry: %w", err)
		}
		mizudi.RegisterValue(c, telemetry)
	}

	// Server -----------------------------------------------------
	mizudi.RegisterValue(c, newServer(cfg, logger, registry))
	return c, nil
}

func newServer(cfg *Config, logger *slog.Logger, registry *prometheus.Registry) *mizu.Server {
	opts := []mizu.Option{
		mizu.WithLogger(logger),
		mizu.WithReadinessDrainDelay(cfg.Server.ReadinessDrainDelay),
		mizu.WithShutdownPeriod(cfg.Server.ShutdownPeriod),
		mizu.WithHardShutdownPeriod(cfg.Server.HardShutdownPeriod),
	}
	if cfg.Server.Metrics {
		opts = append(opts, mizu.WithPrometheusMetrics(registry))
	}
	if cfg.Server.Profiling {
		opts = append(opts, mizu.WithProfilingHandlers())
	}
	if cfg.Server.RevealRoutes {
		opts = append(opts, mizu.WithRevealRoutes())
	}
	server := mizu.NewServer(ServiceName, opts...)

	// HTTP global middleware -------------------------------------
	server.
		Use(accesslogmw.New(accesslogmw.WithLogger(logger), accesslogmw.WithSkipPaths("/healthz", "/metrics"))).
		Use(recovermw.New(recovermw.WithLogger(logger)))
	if cfg.Otel.Enabled {
		server.Use(otelhttp.NewMiddleware(ServiceName))
	}
	if cfg.Server.CorsOrigin != "" {
		server.Use(corsmw.New(corsmw.WithOrigin(cfg.Server.CorsOrigin)))
	}
	if cfg.Server.Compress {
		server.Use(compressmw.New())
	}
	return server
}

func normalizeLevel(level string) string {
	if strings.EqualFold(level, "warning") {
		return "warn"
	}
	return level
}
