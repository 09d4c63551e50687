package hellosvc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/humbornjo/mizuhello/internal/mizu"
	"github.com/humbornjo/mizuhello/internal/mizudi"
	"github.com/humbornjo/mizuhello/service/greetsvc"
)

// Initialize wires the routes onto the registered server using the
// registered Greeter and prometheus registry.
func Initialize(c *mizudi.Container, opts ...Option) error {
	srv, err := mizudi.Retrieve[*mizu.Server](c)
	if err != nil {
		return err
	}
	greeter, err := mizudi.Retrieve[greetsvc.Greeter](c)
	if err != nil {
		return err
	}
	if reg, err := mizudi.Retrieve[*prometheus.Registry](c); err == nil {
		opts = append([]Option{WithRegisterer(reg)}, opts...)
	}

	return NewHandler(greeter, opts...).Register(srv)
}
