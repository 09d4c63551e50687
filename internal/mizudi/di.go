// Package mizudi provides configuration loading and dependency
// injection for the service.
//
// The package offers two main functionalities:
//  1. Configuration management through YAML files, environment
//     variables and explicit overrides (koanf)
//  2. Dependency injection using the samber/do library
package mizudi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/do/v2"
)

const (
	_DELIM              = "."
	_ENV_SECTION_DELIM  = "__"
	_DEFAULT_ENV_PREFIX = "MIZUHELLO_"
	_DEFAULT_LOAD_FILE  = "local.yaml"
)

var ErrMissingKey = errors.New("missing configuration key")

// Option represents a configuration option for New.
type Option func(*config)

type config struct {
	envPrefix string
	loadPaths []string
}

// WithEnvPrefix sets the prefix of environment variables that are
// loaded into the configuration. Defaults to "MIZUHELLO_".
func WithEnvPrefix(prefix string) Option {
	return func(c *config) {
		c.envPrefix = prefix
	}
}

// WithLoadPaths sets the YAML files to load, in order. Files that do
// not exist are skipped. Defaults to "local.yaml" in the working
// directory.
func WithLoadPaths(paths ...string) Option {
	return func(c *config) {
		c.loadPaths = append(c.loadPaths, paths...)
	}
}

// Container holds the loaded configuration and the injector of the
// process.
type Container struct {
	koanf    *koanf.Koanf
	injector *do.RootScope
}

// New loads the configuration and creates an empty injector.
//
// Environment variables carrying the prefix are mapped to keys by
// dropping the prefix, lower-casing, and turning "__" into the
// section separator, e.g. MIZUHELLO_SERVER__ADDR becomes
// server.addr.
func New(opts ...Option) (*Container, error) {
	config := &config{envPrefix: _DEFAULT_ENV_PREFIX}
	for _, opt := range opts {
		opt(config)
	}

	if len(config.loadPaths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		config.loadPaths = []string{path.Join(wd, _DEFAULT_LOAD_FILE)}
	}

	k, parser := koanf.New(_DELIM), yaml.Parser()
	for _, p := range config.loadPaths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := k.Load(file.Provider(p), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	prefix := config.envPrefix
	if err := k.Load(env.Provider(prefix, _DELIM, func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(key, _ENV_SECTION_DELIM, _DELIM)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return &Container{koanf: k, injector: do.New()}, nil
}

// Set overrides a single key, typically from a command-line flag.
func (c *Container) Set(key string, value any) error {
	return c.koanf.Set(key, value)
}

// Exists reports whether key is present in any loaded source.
func (c *Container) Exists(key string) bool {
	return c.koanf.Exists(key)
}

// Require returns ErrMissingKey naming every absent key.
func (c *Container) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !c.koanf.Exists(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	return nil
}

// RevealConfig writes the merged configuration as YAML.
func (c *Container) RevealConfig(tx io.Writer) error {
	bytes, err := c.koanf.Marshal(yaml.Parser())
	if err != nil {
		return err
	}

	bytes = append(bytes, byte('\n'))
	_, err = tx.Write(bytes)
	return err
}

// Enchant unmarshals the section at key into a copy of defaultConfig
// using yaml tags. An empty key unmarshals the whole configuration.
// Keys absent from the configuration keep their default value.
//
//	type Config struct {
//	    Addr string `yaml:"addr"`
//	}
//
//	cfg, err := mizudi.Enchant(c, "server", &Config{Addr: ":8080"})
func Enchant[T any](c *Container, key string, defaultConfig *T) (*T, error) {
	out := new(T)
	if defaultConfig != nil {
		*out = *defaultConfig
	}

	unmarshalConf := koanf.UnmarshalConf{Tag: "yaml"}
	if err := c.koanf.UnmarshalWithConf(key, out, unmarshalConf); err != nil {
		return nil, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return out, nil
}

// Register is a handy wrapper around samber/do/v2's Provide
// function. Providers are lazy and called once.
func Register[T any](c *Container, fn func() (T, error)) {
	do.Provide(c.injector, func(i do.Injector) (T, error) { return fn() })
}

// RegisterValue is a handy wrapper around samber/do/v2's
// ProvideValue function.
func RegisterValue[T any](c *Container, value T) {
	do.ProvideValue(c.injector, value)
}

// Retrieve is a handy wrapper around samber/do/v2's Invoke
// function.
func Retrieve[T any](c *Container) (T, error) {
	return do.Invoke[T](c.injector)
}

// MustRetrieve is a handy wrapper around samber/do/v2's
// MustInvoke function.
func MustRetrieve[T any](c *Container) T {
	return do.MustInvoke[T](c.injector)
}
