// Package mizulog wires log/slog for the service: a backend chosen
// by format, a minimum level and per-request context attributes.
package mizulog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

type ctxkey int

const _CTXKEY ctxkey = iota

const (
	FORMAT_TEXT = "text"
	FORMAT_JSON = "json"
)

var _DEFAULT_LOG_LEVEL = slog.LevelInfo

// Option configures the mizulog handler.
type Option func(*handler)

// Initialize sets the default slog logger with a mizulog handler and
// returns it.
func Initialize(h slog.Handler, opts ...Option) *slog.Logger {
	logger := slog.New(New(h, opts...))
	slog.SetDefault(logger)
	return logger
}

// New wraps h. A nil h falls back to a text backend on stderr.
func New(h slog.Handler, opts ...Option) *handler {
	if h == nil {
		h = NewBackend(FORMAT_TEXT, nil)
	}

	handler := &handler{Handler: h, level: _DEFAULT_LOG_LEVEL}
	for _, opt := range opts {
		opt(handler)
	}
	return handler
}

// NewBackend builds the underlying handler for format. Text output
// goes through charmbracelet/log, anything else is JSON. The backend
// logs everything; filtering happens in the mizulog handler.
func NewBackend(format string, tx io.Writer) slog.Handler {
	if tx == nil {
		tx = os.Stderr
	}

	switch strings.ToLower(format) {
	case FORMAT_JSON:
		return slog.NewJSONHandler(tx, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		return log.NewWithOptions(tx, log.Options{
			ReportTimestamp: true,
			Level:           log.DebugLevel,
		})
	}
}

// InjectContextAttrs adds attributes to ctx that are appended to every
// record logged with that context.
//
//	ctx = mizulog.InjectContextAttrs(ctx, slog.String("request_id", id))
//	slog.InfoContext(ctx, "greeting served") // includes request_id
func InjectContextAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		return ctx
	}

	value := ctx.Value(_CTXKEY)
	if value == nil {
		return context.WithValue(ctx, _CTXKEY, attrs)
	}
	ctxAttrs, _ := value.([]slog.Attr)
	merged := make([]slog.Attr, 0, len(ctxAttrs)+len(attrs))
	merged = append(merged, ctxAttrs...)
	return context.WithValue(ctx, _CTXKEY, append(merged, attrs...))
}

type level interface {
	int | string
}

// WithLogLevel sets the minimum level. Strings use slog names
// ("debug", "info", "warn", "error"); "warning" is accepted too.
// An unknown string panics.
func WithLogLevel[T level](level T) Option {
	l := new(slog.Level)
	switch data := any(level).(type) {
	case int:
		*l = slog.Level(data)
	case string:
		if strings.EqualFold(data, "warning") {
			data = "warn"
		}
		if err := l.UnmarshalText([]byte(data)); err != nil {
			panic(err)
		}
	}
	return func(h *handler) {
		h.level = *l
	}
}

// WithAttributes adds attributes included in all log records.
func WithAttributes(attrs ...slog.Attr) Option {
	return func(h *handler) {
		h.attrs = append(h.attrs, attrs...)
	}
}

type handler struct {
	slog.Handler
	level slog.Level
	attrs []slog.Attr
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)
	if ctx == nil {
		return h.Handler.Handle(ctx, r)
	}

	if attrs, ok := ctx.Value(_CTXKEY).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{Handler: h.Handler.WithAttrs(attrs), level: h.level, attrs: h.attrs}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{Handler: h.Handler.WithGroup(name), level: h.level, attrs: h.attrs}
}
