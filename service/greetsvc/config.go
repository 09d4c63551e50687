package greetsvc

// CONFIG_KEY is the configuration section of the service.
const CONFIG_KEY = "greetsvc"

// KEY_DEFAULT_GREETING must be present at startup. An empty value is
// a valid greeting.
const KEY_DEFAULT_GREETING = CONFIG_KEY + ".default_greeting"

type Config struct {
	DefaultGreeting string `yaml:"default_greeting"`
}
