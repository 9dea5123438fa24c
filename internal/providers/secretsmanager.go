package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

const keyGeneratorName = "aws.secretsmanager"

// SecretsManagerClientAPI defines the interface for Secrets Manager
// operations. This allows for mocking in tests.
type SecretsManagerClientAPI interface {
	GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error)
}

// KeyGenerator implements secretstore.Generator on the Secrets Manager
// GetRandomPassword API. The service supplies the randomness; nothing is
// stored in Secrets Manager itself.
type KeyGenerator struct {
	client SecretsManagerClientAPI
	logger *logging.Logger
}

// KeyGeneratorOption is a functional option for configuring the generator
type KeyGeneratorOption func(*KeyGenerator)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) KeyGeneratorOption {
	return func(g *KeyGenerator) {
		g.client = client
	}
}

// WithKeyGeneratorLogger sets the logger used for debug output
func WithKeyGeneratorLogger(logger *logging.Logger) KeyGeneratorOption {
	return func(g *KeyGenerator) {
		g.logger = logger
	}
}

// NewKeyGenerator creates a key generator for the given connection settings.
func NewKeyGenerator(ctx context.Context, cc ClientConfig, opts ...KeyGeneratorOption) (*KeyGenerator, error) {
	g := &KeyGenerator{
		logger: logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(g)
	}

	// If no client was provided via options, create the real one
	if g.client == nil {
		cfg, err := loadAWSConfig(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("failed to create Secrets Manager client: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if cc.Endpoint != "" {
			endpoint := cc.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		g.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return g, nil
}

// Name returns the generator identifier
func (g *KeyGenerator) Name() string {
	return keyGeneratorName
}

// Generate returns a random string of exactly length characters containing
// none of excludeCharacters
func (g *KeyGenerator) Generate(ctx context.Context, length int, excludeCharacters string) (string, error) {
	g.logger.Debug("requesting %d random characters from %s", length, keyGeneratorName)

	input := &secretsmanager.GetRandomPasswordInput{
		PasswordLength:    aws.Int64(int64(length)),
		ExcludeCharacters: aws.String(excludeCharacters),
	}

	result, err := g.client.GetRandomPassword(ctx, input)
	if err != nil {
		return "", secretstore.UnavailableError{
			Store: keyGeneratorName,
			Op:    "generate",
			Err:   err,
		}
	}

	if result.RandomPassword == nil {
		return "", secretstore.UnavailableError{
			Store: keyGeneratorName,
			Op:    "generate",
			Err:   fmt.Errorf("service returned no password"),
		}
	}

	return *result.RandomPassword, nil
}

// Validate checks that the generator is reachable and authorized. The probe
// requests a short throwaway value; GetRandomPassword stores nothing.
func (g *KeyGenerator) Validate(ctx context.Context) error {
	input := &secretsmanager.GetRandomPasswordInput{
		PasswordLength: aws.Int64(8),
	}

	if _, err := g.client.GetRandomPassword(ctx, input); err != nil {
		return secretstore.UnavailableError{
			Store: keyGeneratorName,
			Op:    "validate",
			Err:   err,
		}
	}

	return nil
}
