package providers_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekey/gatekey/internal/providers"
	"github.com/gatekey/gatekey/pkg/secretstore"
	"github.com/gatekey/gatekey/tests/fakes"
)

func newTestGenerator(t *testing.T, fake *fakes.FakeSecretsManagerClient) *providers.KeyGenerator {
	t.Helper()

	gen, err := providers.NewKeyGenerator(context.Background(), providers.ClientConfig{},
		providers.WithSecretsManagerClient(fake))
	require.NoError(t, err)
	return gen
}

func TestKeyGeneratorName(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, fakes.NewFakeSecretsManagerClient())
	assert.Equal(t, "aws.secretsmanager", gen.Name())
}

func TestKeyGeneratorGenerate(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	gen := newTestGenerator(t, fake)

	key, err := gen.Generate(context.Background(), 40, secretstore.DefaultExcludeCharacters)
	require.NoError(t, err)

	assert.Len(t, key, 40)
	for _, r := range secretstore.DefaultExcludeCharacters {
		assert.NotContains(t, key, string(r))
	}
}

func TestKeyGeneratorForwardsRequest(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	gen := newTestGenerator(t, fake)

	_, err := gen.Generate(context.Background(), 64, "abc")
	require.NoError(t, err)

	require.NotNil(t, fake.LastInput)
	assert.Equal(t, int64(64), aws.ToInt64(fake.LastInput.PasswordLength))
	assert.Equal(t, "abc", aws.ToString(fake.LastInput.ExcludeCharacters))
}

func TestKeyGeneratorLengths(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	gen := newTestGenerator(t, fake)

	for _, length := range []int{1, 20, 40, 128} {
		key, err := gen.Generate(context.Background(), length, secretstore.DefaultExcludeCharacters)
		require.NoError(t, err)
		assert.Len(t, key, length)
	}
}

func TestKeyGeneratorServiceError(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	cause := fmt.Errorf("AccessDeniedException: not authorized to perform secretsmanager:GetRandomPassword")
	fake.Err = cause
	gen := newTestGenerator(t, fake)

	_, err := gen.Generate(context.Background(), 40, secretstore.DefaultExcludeCharacters)
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "aws.secretsmanager", unavailable.Store)
	assert.Equal(t, "generate", unavailable.Op)
	assert.True(t, errors.Is(err, cause))
}

func TestKeyGeneratorEmptyResponse(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	fake.GetRandomPasswordFunc = func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error) {
		return &secretsmanager.GetRandomPasswordOutput{}, nil
	}
	gen := newTestGenerator(t, fake)

	_, err := gen.Generate(context.Background(), 40, secretstore.DefaultExcludeCharacters)
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Error(), "no password")
}

func TestKeyGeneratorValidate(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	gen := newTestGenerator(t, fake)

	require.NoError(t, gen.Validate(context.Background()))
	assert.Equal(t, 1, fake.GetRandomPasswordCalls)
}

func TestKeyGeneratorValidateUnavailable(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	fake.Err = fmt.Errorf("ExpiredTokenException: security token expired")
	gen := newTestGenerator(t, fake)

	err := gen.Validate(context.Background())
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "validate", unavailable.Op)
}

func TestDefaultExclusionsKeepKeysShellSafe(t *testing.T) {
	fake := fakes.NewFakeSecretsManagerClient()
	gen := newTestGenerator(t, fake)

	key, err := gen.Generate(context.Background(), 40, secretstore.DefaultExcludeCharacters)
	require.NoError(t, err)

	// A key that survives single quotes, double quotes, and YAML plain
	// scalars can be pasted anywhere a deploy script needs it.
	for _, hostile := range []string{`"`, "'", "`", "$", "\\", " ", "|", ";"} {
		assert.False(t, strings.Contains(key, hostile),
			"generated key must not contain %q", hostile)
	}
}
