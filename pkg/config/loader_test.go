package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/pkg/config"
)

type serverTestConfig struct {
	Addr  string `env:"CONFIG_TEST_ADDR" envDefault:":9090"`
	Debug bool   `env:"CONFIG_TEST_DEBUG" envDefault:"false"`
}

type requiredTestConfig struct {
	Secret string `env:"CONFIG_TEST_REQUIRED_SECRET,required"`
}

func TestLoadDefaults(t *testing.T) {
	var cfg serverTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.Debug)
}

func TestLoadIsCachedPerType(t *testing.T) {
	var first serverTestConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not affect the
	// cached value.
	t.Setenv("CONFIG_TEST_ADDR", ":7070")

	var second serverTestConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first.Addr, second.Addr)
}

func TestLoadRequiredMissing(t *testing.T) {
	var cfg requiredTestConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoadNilPointer(t *testing.T) {
	err := config.Load[serverTestConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}
