package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/searchpick/internal/config"
)

func TestConfigCmd_List(t *testing.T) {
	env := isolateEnv(t)

	out, _, err := runCommand(t, context.Background(), "--config", env.config, "config")
	require.NoError(t, err)

	for _, key := range config.ListKeys() {
		assert.Contains(t, out, key+" = ")
	}
	assert.Contains(t, out, "Config file: "+env.config)
}

func TestConfigCmd_GetDefault(t *testing.T) {
	env := isolateEnv(t)

	out, _, err := runCommand(t, context.Background(), "--config", env.config, "config", "picker.page_size")
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)
}

func TestConfigCmd_GetUnset(t *testing.T) {
	env := isolateEnv(t)

	out, _, err := runCommand(t, context.Background(), "--config", env.config, "config", "source.command")
	require.NoError(t, err)
	assert.Equal(t, "(not set)\n", out)
}

func TestConfigCmd_SetThenGet(t *testing.T) {
	env := isolateEnv(t)

	out, _, err := runCommand(t, context.Background(), "--config", env.config, "config", "picker.page_size", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "picker.page_size = 50")
	assert.Contains(t, out, "Saved to: "+env.config)

	data, err := os.ReadFile(env.config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page_size: 50")

	out, _, err = runCommand(t, context.Background(), "--config", env.config, "config", "picker.page_size")
	require.NoError(t, err)
	assert.Equal(t, "50", strings.TrimSpace(out))
}

func TestConfigCmd_SetUnknownKey(t *testing.T) {
	env := isolateEnv(t)

	_, _, err := runCommand(t, context.Background(), "--config", env.config, "config", "bogus.key", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownKey), "got %v", err)

	_, statErr := os.Stat(env.config)
	assert.True(t, os.IsNotExist(statErr), "failed set must not write the config file")
}

func TestConfigCmd_SetInvalidValue(t *testing.T) {
	env := isolateEnv(t)

	_, _, err := runCommand(t, context.Background(), "--config", env.config, "config", "source.kind", "carrier-pigeon")
	assert.Error(t, err)
}
