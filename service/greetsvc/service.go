// Package greetsvc holds the configured default greeting and formats
// it, optionally addressed to a name.
package greetsvc

// Greeter produces greetings. *Service is the implementation.
type Greeter interface {
	Greeting() string
	GreetingFor(name string) string
}

var _ Greeter = (*Service)(nil)

// Service is read-only after construction and safe for concurrent
// use.
type Service struct {
	defaultGreeting string
}

func NewService(cfg *Config) *Service {
	return &Service{defaultGreeting: cfg.DefaultGreeting}
}

// Greeting returns the default greeting verbatim.
func (s *Service) Greeting() string {
	return s.defaultGreeting
}

// GreetingFor returns "<greeting>, <name>". The name is neither
// validated nor escaped.
func (s *Service) GreetingFor(name string) string {
	return s.defaultGreeting + ", " + name
}
