package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekey/gatekey/internal/config"
	"github.com/gatekey/gatekey/internal/logging"
)

func TestInitCommand_CreatesStarterConfig(t *testing.T) {
	cfg := missingConfig(t)

	_, err := captureOutput(t, NewInitCommand(cfg), []string{})
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "version: 0")
	assert.Contains(t, content, "defaults:")
	assert.Contains(t, content, "stacks:")
	assert.Contains(t, content, "my-stack:")
}

func TestInitCommand_StarterConfigLoads(t *testing.T) {
	cfg := missingConfig(t)

	_, err := captureOutput(t, NewInitCommand(cfg), []string{})
	require.NoError(t, err)

	fresh := &config.Config{Path: cfg.Path, Logger: logging.New(false, true)}
	require.NoError(t, fresh.Load(), "the starter file must pass validation as written")

	rs, err := fresh.ResolveStack("my-stack", config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", rs.Region)
	assert.Equal(t, "/my-stack/api-key", rs.Plan.ParameterName)
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	cfg := testConfig(t, "version: 0\n")

	_, err := captureOutput(t, NewInitCommand(cfg), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, readErr := os.ReadFile(cfg.Path)
	require.NoError(t, readErr)
	assert.Equal(t, "version: 0\n", string(data), "the existing file is untouched")
}
