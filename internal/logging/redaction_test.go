package logging_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatekey/gatekey/internal/logging"
)

// captureStderr captures stderr output for testing.
func captureStderr(fn func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestSecretNeverReachesStderr(t *testing.T) {
	// Cannot run in parallel: captureStderr swaps the global os.Stderr.

	key := "FcdXKn0Wb1u2qTkQmzJd35vPyLhN8gRsEwAiC4xo"

	levels := []struct {
		name  string
		debug bool
		logFn func(*logging.Logger, string, ...interface{})
	}{
		{"info", false, (*logging.Logger).Info},
		{"warn", false, (*logging.Logger).Warn},
		{"error", false, (*logging.Logger).Error},
		{"debug", true, (*logging.Logger).Debug},
	}

	for _, tt := range levels {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.New(tt.debug, true)

			output := captureStderr(func() {
				tt.logFn(logger, "resolved key %s for stack orders-api", logging.Secret(key))
			})

			assert.Contains(t, output, "[REDACTED]")
			assert.NotContains(t, output, key)
		})
	}
}

func TestPlainValuesAreNotRedacted(t *testing.T) {
	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Info("stack %s uses parameter %s", "orders-api", "/orders-api/api-key")
	})

	assert.Contains(t, output, "orders-api")
	assert.Contains(t, output, "/orders-api/api-key")
	assert.NotContains(t, output, "[REDACTED]")
}

func TestDebugSuppressedByDefault(t *testing.T) {
	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Debug("checking local cache at %s", "/home/user/.gatekey")
	})

	assert.Empty(t, output)
}

func TestDebugEmittedWhenEnabled(t *testing.T) {
	logger := logging.New(true, true)

	output := captureStderr(func() {
		logger.Debug("checking local cache at %s", "/home/user/.gatekey")
	})

	assert.Contains(t, output, "[DEBUG]")
	assert.Contains(t, output, ".gatekey")
}

func TestNoColorOutputHasNoEscapes(t *testing.T) {
	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Info("cache hit")
	})

	assert.NotContains(t, output, "\033[")
	assert.Contains(t, output, "✓ cache hit")
}

func TestColorOutputWrapsSymbol(t *testing.T) {
	logger := logging.New(false, false)

	output := captureStderr(func() {
		logger.Error("parameter store unreachable")
	})

	assert.Contains(t, output, "\033[31m✗\033[0m")
}
