package providers_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekey/gatekey/internal/providers"
	"github.com/gatekey/gatekey/pkg/secretstore"
	"github.com/gatekey/gatekey/tests/fakes"
)

func newTestResolver(t *testing.T, fake *fakes.FakeSTSClient) *providers.AccountResolver {
	t.Helper()

	resolver, err := providers.NewAccountResolver(context.Background(), providers.ClientConfig{},
		providers.WithSTSClient(fake))
	require.NoError(t, err)
	return resolver
}

func TestAccountResolverName(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, fakes.NewFakeSTSClient("123456789012"))
	assert.Equal(t, "aws.sts", resolver.Name())
}

func TestAccountResolverCallerIdentity(t *testing.T) {
	fake := fakes.NewFakeSTSClient("123456789012")
	resolver := newTestResolver(t, fake)

	identity, err := resolver.CallerIdentity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "123456789012", identity.Account)
	assert.Equal(t, "arn:aws:iam::123456789012:user/deployer", identity.ARN)
	assert.NotEmpty(t, identity.UserID)
	assert.Equal(t, 1, fake.GetCallerIdentityCalls)
}

func TestAccountResolverBadCredentials(t *testing.T) {
	fake := fakes.NewFakeSTSClient("123456789012")
	cause := fmt.Errorf("InvalidClientTokenId: the security token included in the request is invalid")
	fake.Err = cause
	resolver := newTestResolver(t, fake)

	_, err := resolver.CallerIdentity(context.Background())
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "aws.sts", unavailable.Store)
	assert.True(t, errors.Is(err, cause))
}

func TestAccountResolverEmptyAccount(t *testing.T) {
	fake := &fakes.FakeSTSClient{}
	resolver := newTestResolver(t, fake)

	_, err := resolver.CallerIdentity(context.Background())
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Error(), "no account ID")
}

func TestAccountResolverValidate(t *testing.T) {
	fake := fakes.NewFakeSTSClient("123456789012")
	resolver := newTestResolver(t, fake)

	require.NoError(t, resolver.Validate(context.Background()))
}

func TestAccountResolverValidateUnavailable(t *testing.T) {
	fake := fakes.NewFakeSTSClient("123456789012")
	fake.Err = fmt.Errorf("dial tcp: no such host")
	resolver := newTestResolver(t, fake)

	err := resolver.Validate(context.Background())
	require.Error(t, err)

	var unavailable secretstore.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "validate", unavailable.Op)
}
