package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

const parameterStoreName = "aws.ssm"

// SSMClientAPI defines the interface for SSM Parameter Store operations.
// This allows for mocking in tests.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// ParameterStore implements secretstore.Store on SSM Parameter Store.
// Reads decrypt SecureString values; writes always create SecureString
// records in the Standard tier.
type ParameterStore struct {
	client SSMClientAPI
	logger *logging.Logger
}

// ParameterStoreOption is a functional option for configuring the store
type ParameterStoreOption func(*ParameterStore)

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(client SSMClientAPI) ParameterStoreOption {
	return func(s *ParameterStore) {
		s.client = client
	}
}

// WithParameterStoreLogger sets the logger used for debug output
func WithParameterStoreLogger(logger *logging.Logger) ParameterStoreOption {
	return func(s *ParameterStore) {
		s.logger = logger
	}
}

// NewParameterStore creates a Parameter Store client for the given
// connection settings.
func NewParameterStore(ctx context.Context, cc ClientConfig, opts ...ParameterStoreOption) (*ParameterStore, error) {
	s := &ParameterStore{
		logger: logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(s)
	}

	// If no client was provided via options, create the real one
	if s.client == nil {
		cfg, err := loadAWSConfig(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSM client: %w", err)
		}

		var clientOpts []func(*ssm.Options)
		if cc.Endpoint != "" {
			endpoint := cc.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = ssm.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// Name returns the store identifier
func (s *ParameterStore) Name() string {
	return parameterStoreName
}

// Get retrieves and decrypts one parameter
func (s *ParameterStore) Get(ctx context.Context, name string) (secretstore.Parameter, error) {
	s.logger.Debug("fetching parameter %s", name)

	input := &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	}

	result, err := s.client.GetParameter(ctx, input)
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return secretstore.Parameter{}, secretstore.NotFoundError{
				Store: parameterStoreName,
				Name:  name,
			}
		}
		return secretstore.Parameter{}, secretstore.UnavailableError{
			Store: parameterStoreName,
			Op:    "get",
			Err:   err,
		}
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return secretstore.Parameter{}, secretstore.UnavailableError{
			Store: parameterStoreName,
			Op:    "get",
			Err:   fmt.Errorf("parameter %s has no value", name),
		}
	}

	return secretstore.Parameter{
		Name:    name,
		Value:   *result.Parameter.Value,
		Type:    secretstore.ParameterType(result.Parameter.Type),
		Version: result.Parameter.Version,
	}, nil
}

// Put creates an encrypted parameter record
func (s *ParameterStore) Put(ctx context.Context, name, value string, opts secretstore.PutOptions) (int64, error) {
	s.logger.Debug("writing parameter %s (overwrite=%t)", name, opts.Overwrite)

	input := &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeSecureString,
		Tier:      types.ParameterTierStandard,
		DataType:  aws.String("text"),
		Overwrite: aws.Bool(opts.Overwrite),
	}
	if opts.KeyID != "" {
		input.KeyId = aws.String(opts.KeyID)
	}
	if opts.Description != "" {
		input.Description = aws.String(opts.Description)
	}

	result, err := s.client.PutParameter(ctx, input)
	if err != nil {
		var exists *types.ParameterAlreadyExists
		if errors.As(err, &exists) {
			return 0, secretstore.ConflictError{
				Store: parameterStoreName,
				Name:  name,
			}
		}
		return 0, secretstore.UnavailableError{
			Store: parameterStoreName,
			Op:    "put",
			Err:   err,
		}
	}

	return result.Version, nil
}

// Describe reports parameter metadata without decrypting the value
func (s *ParameterStore) Describe(ctx context.Context, name string) (secretstore.Metadata, error) {
	input := &ssm.DescribeParametersInput{
		ParameterFilters: []types.ParameterStringFilter{
			{
				Key:    aws.String("Name"),
				Values: []string{name},
			},
		},
		MaxResults: aws.Int32(1),
	}

	result, err := s.client.DescribeParameters(ctx, input)
	if err != nil {
		return secretstore.Metadata{}, secretstore.UnavailableError{
			Store: parameterStoreName,
			Op:    "describe",
			Err:   err,
		}
	}

	if len(result.Parameters) == 0 {
		return secretstore.Metadata{Exists: false}, nil
	}

	param := result.Parameters[0]
	meta := secretstore.Metadata{
		Exists:  true,
		Type:    secretstore.ParameterType(param.Type),
		Version: param.Version,
		Tier:    string(param.Tier),
	}
	if param.LastModifiedDate != nil {
		meta.UpdatedAt = *param.LastModifiedDate
	}

	return meta, nil
}

// Validate checks connectivity and permissions with a minimal describe call
func (s *ParameterStore) Validate(ctx context.Context) error {
	input := &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(1),
	}

	if _, err := s.client.DescribeParameters(ctx, input); err != nil {
		return secretstore.UnavailableError{
			Store: parameterStoreName,
			Op:    "validate",
			Err:   err,
		}
	}

	return nil
}
