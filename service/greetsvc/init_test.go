package greetsvc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbornjo/mizuhello/internal/mizudi"
	"github.com/humbornjo/mizuhello/service/greetsvc"
)

func newContainer(t *testing.T, yaml string) *mizudi.Container {
	t.Helper()
	p := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yaml), 0o600))

	c, err := mizudi.New(mizudi.WithEnvPrefix("GREETSVC_TEST_"), mizudi.WithLoadPaths(p))
	require.NoError(t, err)
	return c
}

func TestInitialize(t *testing.T) {
	c := newContainer(t, "greetsvc:\n  default_greeting: Hello!\n")
	require.NoError(t, greetsvc.Initialize(c))

	greeter := mizudi.MustRetrieve[greetsvc.Greeter](c)
	assert.Equal(t, "Hello!", greeter.Greeting())
	assert.Equal(t, "Hello!, John", greeter.GreetingFor("John"))
}

func TestInitialize_EmptyGreetingIsAccepted(t *testing.T) {
	c := newContainer(t, "greetsvc:\n  default_greeting: \"\"\n")
	require.NoError(t, greetsvc.Initialize(c))

	greeter := mizudi.MustRetrieve[greetsvc.Greeter](c)
	assert.Equal(t, "", greeter.Greeting())
	assert.Equal(t, ", John", greeter.GreetingFor("John"))
}

func TestInitialize_EnvOverridesFile(t *testing.T) {
	t.Setenv("GREETSVC_TEST_GREETSVC__DEFAULT_GREETING", "Howdy")
	c := newContainer(t, "greetsvc:\n  default_greeting: Hello!\n")
	require.NoError(t, greetsvc.Initialize(c))

	assert.Equal(t, "Howdy", mizudi.MustRetrieve[greetsvc.Greeter](c).Greeting())
}

func TestInitialize_MissingGreeting(t *testing.T) {
	c := newContainer(t, "server:\n  addr: \":8080\"\n")

	err := greetsvc.Initialize(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, greetsvc.ErrMissingGreeting))
	assert.True(t, errors.Is(err, mizudi.ErrMissingKey))

	_, err = mizudi.Retrieve[greetsvc.Greeter](c)
	assert.Error(t, err)
}
