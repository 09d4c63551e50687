package greetsvc

import (
	"errors"
	"fmt"

	"github.com/humbornjo/mizuhello/internal/mizudi"
)

var ErrMissingGreeting = errors.New("default greeting is not configured")

// Initialize reads the service configuration and registers the
// Greeter. A missing default greeting fails startup.
func Initialize(c *mizudi.Container) error {
	if err := c.Require(KEY_DEFAULT_GREETING); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingGreeting, err)
	}

	cfg, err := mizudi.Enchant[Config](c, CONFIG_KEY, nil)
	if err != nil {
		return err
	}

	svc := NewService(cfg)
	mizudi.RegisterValue[Greeter](c, svc)
	return nil
}
