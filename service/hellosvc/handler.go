// Package hellosvc exposes the greeting over HTTP:
//
//	GET /hello         -> "<greeting>"
//	GET /hello/{name}  -> "<greeting>, <name>"
//
// Both respond 200 with a text/plain body.
package hellosvc

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/humbornjo/mizuhello/service/greetsvc"
)

const (
	ROUTE_HELLO      = "/hello"
	ROUTE_HELLO_NAME = "/hello/{name}"
	ROUTE_OPENAPI    = "/openapi.json"

	_CONTENT_TYPE_TEXT = "text/plain; charset=utf-8"
	_CONTENT_TYPE_JSON = "application/json"
)

// Router is the part of the server the handler registers on.
type Router interface {
	Get(pattern string, handler http.HandlerFunc)
}

type Option func(*Handler)

// WithRegisterer registers the greeting counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(h *Handler) {
		h.registerer = reg
	}
}

// WithVersion sets the API version in the OpenAPI document.
func WithVersion(version string) Option {
	return func(h *Handler) {
		h.version = version
	}
}

// Handler serves the greeting routes for a Greeter passed at
// construction.
type Handler struct {
	greeter    greetsvc.Greeter
	registerer prometheus.Registerer
	version    string
	served     *prometheus.CounterVec
}

// NewHandler panics if the counter cannot be registered, mirroring
// prometheus.MustRegister.
func NewHandler(greeter greetsvc.Greeter, opts ...Option) *Handler {
	h := &Handler{
		greeter: greeter,
		version: "dev",
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mizuhello_greetings_total",
			Help: "Greetings served, by route.",
		}, []string{"route"}),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.registerer != nil {
		h.registerer.MustRegister(h.served)
	}
	return h
}

// Register mounts the greeting routes and the OpenAPI document.
func (h *Handler) Register(r Router) error {
	doc, err := NewOpenAPI(h.version).MarshalJSON()
	if err != nil {
		return err
	}

	r.Get(ROUTE_HELLO, h.HandleGreeting)
	r.Get(ROUTE_HELLO_NAME, h.HandleGreetingFor)
	r.Get(ROUTE_OPENAPI, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", _CONTENT_TYPE_JSON)
		_, _ = w.Write(doc)
	})
	return nil
}

// HandleGreeting serves GET /hello.
func (h *Handler) HandleGreeting(w http.ResponseWriter, r *http.Request) {
	h.served.WithLabelValues(ROUTE_HELLO).Inc()
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Bool("greeting.named", false))

	writeText(w, h.greeter.Greeting())
}

// HandleGreetingFor serves GET /hello/{name}.
func (h *Handler) HandleGreetingFor(w http.ResponseWriter, r *http.Request) {
	h.served.WithLabelValues(ROUTE_HELLO_NAME).Inc()
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Bool("greeting.named", true))

	writeText(w, h.greeter.GreetingFor(r.PathValue("name")))
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", _CONTENT_TYPE_TEXT)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, s)
}
