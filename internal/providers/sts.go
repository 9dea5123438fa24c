package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

const accountResolverName = "aws.sts"

// STSClientAPI defines the interface for STS operations. This allows for
// mocking in tests.
type STSClientAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity describes the principal the current credentials belong to.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}

// AccountResolver discovers the AWS account behind the ambient credentials.
// The account ID namespaces cache entries, so two stacks with the same name
// in different accounts never collide.
type AccountResolver struct {
	client STSClientAPI
	logger *logging.Logger
}

// AccountResolverOption is a functional option for configuring the resolver
type AccountResolverOption func(*AccountResolver)

// WithSTSClient sets a custom STS client (for testing)
func WithSTSClient(client STSClientAPI) AccountResolverOption {
	return func(r *AccountResolver) {
		r.client = client
	}
}

// WithAccountResolverLogger sets the logger used for debug output
func WithAccountResolverLogger(logger *logging.Logger) AccountResolverOption {
	return func(r *AccountResolver) {
		r.logger = logger
	}
}

// NewAccountResolver creates an account resolver for the given connection
// settings.
func NewAccountResolver(ctx context.Context, cc ClientConfig, opts ...AccountResolverOption) (*AccountResolver, error) {
	r := &AccountResolver{
		logger: logging.New(false, false),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(r)
	}

	// If no client was provided via options, create the real one
	if r.client == nil {
		cfg, err := loadAWSConfig(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("failed to create STS client: %w", err)
		}

		var clientOpts []func(*sts.Options)
		if cc.Endpoint != "" {
			endpoint := cc.Endpoint
			clientOpts = append(clientOpts, func(o *sts.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		r.client = sts.NewFromConfig(cfg, clientOpts...)
	}

	return r, nil
}

// Name returns the resolver identifier
func (r *AccountResolver) Name() string {
	return accountResolverName
}

// CallerIdentity returns the account, ARN, and user ID of the credentials
// in use
func (r *AccountResolver) CallerIdentity(ctx context.Context) (Identity, error) {
	result, err := r.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, secretstore.UnavailableError{
			Store: accountResolverName,
			Op:    "get-caller-identity",
			Err:   err,
		}
	}

	identity := Identity{}
	if result.Account != nil {
		identity.Account = *result.Account
	}
	if result.Arn != nil {
		identity.ARN = *result.Arn
	}
	if result.UserId != nil {
		identity.UserID = *result.UserId
	}

	if identity.Account == "" {
		return Identity{}, secretstore.UnavailableError{
			Store: accountResolverName,
			Op:    "get-caller-identity",
			Err:   fmt.Errorf("response carried no account ID"),
		}
	}

	r.logger.Debug("caller identity resolved to account %s", identity.Account)

	return identity, nil
}

// Validate checks that credentials are present and accepted by STS
func (r *AccountResolver) Validate(ctx context.Context) error {
	if _, err := r.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return secretstore.UnavailableError{
			Store: accountResolverName,
			Op:    "validate",
			Err:   err,
		}
	}
	return nil
}
