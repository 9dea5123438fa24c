package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/gatekey/gatekey/internal/config"
	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/internal/providers"
	"github.com/gatekey/gatekey/tests/fakes"
)

const minimalStackConfig = `version: 0
defaults:
  region: us-east-1
stacks:
  orders-api: {}
`

// testConfig writes content to a temp gatekey.yaml and returns a Config
// pointed at it with a quiet logger, the way PersistentPreRun would set
// it up.
func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gatekey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return &config.Config{Path: path, Logger: logging.New(false, true)}
}

// missingConfig returns a Config whose file does not exist.
func missingConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Path:   filepath.Join(t.TempDir(), "gatekey.yaml"),
		Logger: logging.New(false, true),
	}
}

// isolateCache points the key cache at a fresh directory for one test and
// returns that directory.
func isolateCache(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("GATEKEY_CACHE_DIR", dir)
	return dir
}

// seedCorruptCache writes an unparseable cache file into dir.
func seedCorruptCache(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api-keys.json"), []byte("{not json"), 0o600))
}

// fakeSet bundles the in-memory AWS fakes one test resolves against.
type fakeSet struct {
	ssm *fakes.FakeSSMClient
	sm  *fakes.FakeSecretsManagerClient
	sts *fakes.FakeSTSClient
}

// useFakeBackends reroutes command AWS clients to in-memory fakes for the
// duration of one test.
func useFakeBackends(t *testing.T) *fakeSet {
	t.Helper()

	set := &fakeSet{
		ssm: fakes.NewFakeSSMClient(),
		sm:  fakes.NewFakeSecretsManagerClient(),
		sts: fakes.NewFakeSTSClient("123456789012"),
	}

	orig := buildBackends
	t.Cleanup(func() { buildBackends = orig })

	buildBackends = func(ctx context.Context, cc providers.ClientConfig, logger *logging.Logger) (*backends, error) {
		store, err := providers.NewParameterStore(ctx, cc, providers.WithSSMClient(set.ssm))
		if err != nil {
			return nil, err
		}
		generator, err := providers.NewKeyGenerator(ctx, cc, providers.WithSecretsManagerClient(set.sm))
		if err != nil {
			return nil, err
		}
		accounts, err := providers.NewAccountResolver(ctx, cc, providers.WithSTSClient(set.sts))
		if err != nil {
			return nil, err
		}
		return &backends{store: store, generator: generator, accounts: accounts}, nil
	}

	return set
}

// captureOutput runs a command and returns what it wrote to stdout. Args are
// always set, even when empty, so the test binary's own flags never leak
// into the command line cobra parses.
func captureOutput(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	execErr := cmd.Execute()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	return buf.String(), execErr
}
