// Package commands implements the gatekey CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatekey/gatekey/internal/config"
	dserrors "github.com/gatekey/gatekey/internal/errors"
	"github.com/gatekey/gatekey/internal/keycache"
	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/internal/providers"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

// backends bundles the AWS-facing collaborators a command resolves against.
type backends struct {
	store     secretstore.Store
	generator secretstore.Generator
	accounts  *providers.AccountResolver
}

// buildBackends constructs real AWS clients for the given connection
// settings. It is a package variable so command tests can swap in a
// version backed by in-memory fakes.
var buildBackends = func(ctx context.Context, cc providers.ClientConfig, logger *logging.Logger) (*backends, error) {
	store, err := providers.NewParameterStore(ctx, cc, providers.WithParameterStoreLogger(logger))
	if err != nil {
		return nil, dserrors.BackendError("aws.ssm", "create client", err)
	}

	generator, err := providers.NewKeyGenerator(ctx, cc, providers.WithKeyGeneratorLogger(logger))
	if err != nil {
		return nil, dserrors.BackendError("aws.secretsmanager", "create client", err)
	}

	accounts, err := providers.NewAccountResolver(ctx, cc, providers.WithAccountResolverLogger(logger))
	if err != nil {
		return nil, dserrors.BackendError("aws.sts", "create client", err)
	}

	return &backends{store: store, generator: generator, accounts: accounts}, nil
}

// clientConfigFor maps a resolved stack onto provider connection settings.
func clientConfigFor(rs config.ResolvedStack, endpointURL string) providers.ClientConfig {
	return providers.ClientConfig{
		Region:   rs.Region,
		Profile:  rs.Profile,
		Endpoint: endpointURL,
	}
}

// openKeyCache opens the local key cache, turning a corrupt cache file into
// an actionable error instead of a bare JSON parse failure.
func openKeyCache(path string) (*keycache.Cache, error) {
	cache, err := keycache.Open(path)
	if err == nil {
		return cache, nil
	}

	var corrupt *keycache.CorruptError
	if errors.As(err, &corrupt) {
		return nil, dserrors.UserError{
			Message:    "local key cache is unreadable",
			Details:    corrupt.Error(),
			Suggestion: fmt.Sprintf("Remove %s and re-run; the cache is rebuilt from the parameter store", corrupt.Path),
			Err:        err,
		}
	}

	return nil, err
}

// ensureAccount fills in the account ID from STS when neither a flag nor the
// configuration supplied one.
func ensureAccount(ctx context.Context, rs *config.ResolvedStack, b *backends, logger *logging.Logger) error {
	if rs.Account != "" {
		return nil
	}

	identity, err := b.accounts.CallerIdentity(ctx)
	if err != nil {
		return dserrors.BackendError("aws.sts", "discover account", err)
	}

	logger.Debug("discovered account %s via STS", identity.Account)
	rs.Account = identity.Account
	return nil
}

// friendlyResolveError rewords typed backend failures from a resolution into
// user-facing errors that carry a next step.
func friendlyResolveError(err error) error {
	var conflict secretstore.ConflictError
	if errors.As(err, &conflict) {
		return dserrors.UserError{
			Message:    fmt.Sprintf("another deployment created %s first", conflict.Name),
			Suggestion: "Re-run the command; it will pick up the stored key",
			Err:        err,
		}
	}

	var unavailable secretstore.UnavailableError
	if errors.As(err, &unavailable) {
		return dserrors.BackendError(unavailable.Store, unavailable.Op, err)
	}

	return err
}
