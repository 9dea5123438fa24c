package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekey/gatekey/internal/keycache"
)

func TestCachePathCommand(t *testing.T) {
	dir := isolateCache(t)

	output, err := captureOutput(t, NewCacheCommand(missingConfig(t)), []string{"path"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "api-keys.json")+"\n", output)
}

func TestCacheListCommand_Empty(t *testing.T) {
	isolateCache(t)

	output, err := captureOutput(t, NewCacheCommand(missingConfig(t)), []string{"list"})
	require.NoError(t, err)

	assert.Contains(t, output, "cache is empty")
}

func TestCacheListCommand_ShowsLengthsNotValues(t *testing.T) {
	dir := isolateCache(t)

	cache, err := keycache.Open(filepath.Join(dir, "api-keys.json"))
	require.NoError(t, err)
	require.NoError(t, cache.Put("123456789012", "orders-api", "super-secret-key-value"))
	require.NoError(t, cache.Put("999888777666", "billing", "another-key"))

	output, err := captureOutput(t, NewCacheCommand(missingConfig(t)), []string{"list"})
	require.NoError(t, err)

	assert.Contains(t, output, "123456789012")
	assert.Contains(t, output, "999888777666")
	assert.Regexp(t, `orders-api\s+22`, output, "the value's length stands in for the value")
	assert.Regexp(t, `billing\s+11`, output)
	assert.Contains(t, output, "2 keys cached")

	assert.NotContains(t, output, "super-secret-key-value")
	assert.NotContains(t, output, "another-key")
}

func TestCacheListCommand_CorruptCache(t *testing.T) {
	dir := isolateCache(t)
	seedCorruptCache(t, dir)

	_, err := captureOutput(t, NewCacheCommand(missingConfig(t)), []string{"list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Remove")
}
