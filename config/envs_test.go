package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvDefaults(t *testing.T) {
	t.Run("unset variables take the default", func(t *testing.T) {
		assert.Equal(t, "fallback", getEnvWithDefault("VINOM_MAZE_TEST_UNSET", "fallback"))
		assert.Equal(t, 42, getEnvAsIntWithDefault("VINOM_MAZE_TEST_UNSET", 42))
	})

	t.Run("set variables win", func(t *testing.T) {
		t.Setenv("VINOM_MAZE_TEST_STR", "value")
		t.Setenv("VINOM_MAZE_TEST_INT", "7")
		assert.Equal(t, "value", getEnvWithDefault("VINOM_MAZE_TEST_STR", "fallback"))
		assert.Equal(t, 7, getEnvAsIntWithDefault("VINOM_MAZE_TEST_INT", 42))
	})

	t.Run("empty variable is kept", func(t *testing.T) {
		t.Setenv("VINOM_MAZE_TEST_EMPTY", "")
		assert.Equal(t, "", getEnvWithDefault("VINOM_MAZE_TEST_EMPTY", "fallback"))
	})
}
