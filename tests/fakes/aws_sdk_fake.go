package fakes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSSMClient is an in-memory implementation of the SSM client interface
// used by the parameter store. Call counters record how often each operation
// ran so tests can assert that cache hits never reach the network.
type FakeSSMClient struct {
	// Parameters maps parameter names to their data
	Parameters map[string]*ParameterData
	// Errors maps parameter names to errors to return
	Errors map[string]error

	// GetParameterFunc allows custom behavior for GetParameter
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
	// PutParameterFunc allows custom behavior for PutParameter
	PutParameterFunc func(ctx context.Context, params *ssm.PutParameterInput) (*ssm.PutParameterOutput, error)
	// DescribeParametersFunc allows custom behavior for DescribeParameters
	DescribeParametersFunc func(ctx context.Context, params *ssm.DescribeParametersInput) (*ssm.DescribeParametersOutput, error)

	// Operation counters, incremented on every call including failures
	GetParameterCalls       int
	PutParameterCalls       int
	DescribeParametersCalls int

	// LastPutInput records the most recent PutParameter input for assertions
	LastPutInput *ssm.PutParameterInput
}

// ParameterData holds the data for a fake SSM parameter
type ParameterData struct {
	Name             *string
	Type             ssmtypes.ParameterType
	Value            *string
	Version          int64
	LastModifiedDate *time.Time
	ARN              *string
	DataType         *string
	Tier             ssmtypes.ParameterTier
	KeyID            *string
}

// NewFakeSSMClient creates a new fake SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]*ParameterData),
		Errors:     make(map[string]error),
	}
}

// AddSecureStringParameter adds a SecureString parameter to the fake client
func (f *FakeSSMClient) AddSecureStringParameter(name, value string) {
	now := time.Now()
	f.Parameters[name] = &ParameterData{
		Name:             aws.String(name),
		Type:             ssmtypes.ParameterTypeSecureString,
		Value:            aws.String(value),
		Version:          1,
		LastModifiedDate: &now,
		ARN:              aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
		Tier:             ssmtypes.ParameterTierStandard,
	}
}

// AddStringParameter adds a plain String parameter to the fake client
func (f *FakeSSMClient) AddStringParameter(name, value string) {
	now := time.Now()
	f.Parameters[name] = &ParameterData{
		Name:             aws.String(name),
		Type:             ssmtypes.ParameterTypeString,
		Value:            aws.String(value),
		Version:          1,
		LastModifiedDate: &now,
		ARN:              aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
		Tier:             ssmtypes.ParameterTierStandard,
	}
}

// AddError configures the fake to return an error for a specific parameter
func (f *FakeSSMClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetParameter mocks the GetParameter operation
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.GetParameterCalls++

	if f.GetParameterFunc != nil {
		return f.GetParameterFunc(ctx, params)
	}

	paramName := aws.ToString(params.Name)

	if err, exists := f.Errors[paramName]; exists {
		return nil, err
	}

	data, exists := f.Parameters[paramName]
	if !exists {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", paramName)),
		}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:             data.Name,
			Type:             data.Type,
			Value:            data.Value,
			Version:          data.Version,
			LastModifiedDate: data.LastModifiedDate,
			ARN:              data.ARN,
			DataType:         data.DataType,
		},
	}, nil
}

// PutParameter mocks the PutParameter operation. Without Overwrite the call
// fails on an existing name, matching the create-only behavior the real
// service has.
func (f *FakeSSMClient) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.PutParameterCalls++
	f.LastPutInput = params

	if f.PutParameterFunc != nil {
		return f.PutParameterFunc(ctx, params)
	}

	paramName := aws.ToString(params.Name)

	if err, exists := f.Errors[paramName]; exists {
		return nil, err
	}

	existing, exists := f.Parameters[paramName]
	if exists && !aws.ToBool(params.Overwrite) {
		return nil, &ssmtypes.ParameterAlreadyExists{
			Message: aws.String(fmt.Sprintf("Parameter %s already exists", paramName)),
		}
	}

	version := int64(1)
	if exists {
		version = existing.Version + 1
	}

	now := time.Now()
	f.Parameters[paramName] = &ParameterData{
		Name:             aws.String(paramName),
		Type:             params.Type,
		Value:            params.Value,
		Version:          version,
		LastModifiedDate: &now,
		ARN:              aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", paramName)),
		DataType:         params.DataType,
		Tier:             params.Tier,
		KeyID:            params.KeyId,
	}

	return &ssm.PutParameterOutput{
		Version: version,
		Tier:    ssmtypes.ParameterTierStandard,
	}, nil
}

// DescribeParameters mocks the DescribeParameters operation
func (f *FakeSSMClient) DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	f.DescribeParametersCalls++

	if f.DescribeParametersFunc != nil {
		return f.DescribeParametersFunc(ctx, params)
	}

	// No filters means a reachability probe; return everything
	if len(params.ParameterFilters) == 0 {
		var paramList []ssmtypes.ParameterMetadata
		for _, data := range f.Parameters {
			paramList = append(paramList, ssmtypes.ParameterMetadata{
				Name:             data.Name,
				Type:             data.Type,
				Version:          data.Version,
				LastModifiedDate: data.LastModifiedDate,
				Tier:             data.Tier,
			})
		}
		return &ssm.DescribeParametersOutput{
			Parameters: paramList,
		}, nil
	}

	for _, filter := range params.ParameterFilters {
		if aws.ToString(filter.Key) == "Name" && len(filter.Values) > 0 {
			paramName := filter.Values[0]

			if err, exists := f.Errors[paramName]; exists {
				return nil, err
			}

			data, exists := f.Parameters[paramName]
			if !exists {
				return &ssm.DescribeParametersOutput{
					Parameters: []ssmtypes.ParameterMetadata{},
				}, nil
			}

			return &ssm.DescribeParametersOutput{
				Parameters: []ssmtypes.ParameterMetadata{
					{
						Name:             data.Name,
						Type:             data.Type,
						Version:          data.Version,
						LastModifiedDate: data.LastModifiedDate,
						Tier:             data.Tier,
					},
				},
			}, nil
		}
	}

	return &ssm.DescribeParametersOutput{
		Parameters: []ssmtypes.ParameterMetadata{},
	}, nil
}

// passwordAlphabet is the pool the fake generator draws from before
// exclusions are applied. It deliberately includes characters the default
// exclusion set forbids, so tests catch a generator that ignores exclusions.
const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!@#$%^&*()+={}[]|:;<>,?/~ "

// FakeSecretsManagerClient is an in-memory implementation of the Secrets
// Manager client interface used by the key generator.
type FakeSecretsManagerClient struct {
	// Password, when set, is returned verbatim from GetRandomPassword
	Password string
	// Err, when set, is returned from every call
	Err error

	// GetRandomPasswordFunc allows custom behavior for GetRandomPassword
	GetRandomPasswordFunc func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error)

	// GetRandomPasswordCalls counts invocations including failures
	GetRandomPasswordCalls int

	// LastInput records the most recent GetRandomPassword input
	LastInput *secretsmanager.GetRandomPasswordInput
}

// NewFakeSecretsManagerClient creates a new fake Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{}
}

// GetRandomPassword mocks the GetRandomPassword operation. When no fixed
// Password is configured it synthesizes a deterministic value of the
// requested length that honors ExcludeCharacters.
func (f *FakeSecretsManagerClient) GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error) {
	f.GetRandomPasswordCalls++
	f.LastInput = params

	if f.GetRandomPasswordFunc != nil {
		return f.GetRandomPasswordFunc(ctx, params)
	}

	if f.Err != nil {
		return nil, f.Err
	}

	if f.Password != "" {
		return &secretsmanager.GetRandomPasswordOutput{
			RandomPassword: aws.String(f.Password),
		}, nil
	}

	length := 32
	if params.PasswordLength != nil {
		length = int(*params.PasswordLength)
	}
	exclude := aws.ToString(params.ExcludeCharacters)

	var allowed []byte
	for i := 0; i < len(passwordAlphabet); i++ {
		if !strings.ContainsRune(exclude, rune(passwordAlphabet[i])) {
			allowed = append(allowed, passwordAlphabet[i])
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("exclusions leave no characters to draw from")
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = allowed[i%len(allowed)]
	}

	return &secretsmanager.GetRandomPasswordOutput{
		RandomPassword: aws.String(string(out)),
	}, nil
}

// FakeSTSClient is an in-memory implementation of the STS client interface
// used by the account resolver.
type FakeSTSClient struct {
	// Account is the twelve-digit account ID to report
	Account string
	// ARN is the caller ARN to report
	ARN string
	// UserID is the caller unique ID to report
	UserID string
	// Err, when set, is returned from every call
	Err error

	// GetCallerIdentityCalls counts invocations including failures
	GetCallerIdentityCalls int
}

// NewFakeSTSClient creates a fake STS client reporting the given account
func NewFakeSTSClient(account string) *FakeSTSClient {
	return &FakeSTSClient{
		Account: account,
		ARN:     fmt.Sprintf("arn:aws:iam::%s:user/deployer", account),
		UserID:  "AIDAEXAMPLEUSERID",
	}
}

// GetCallerIdentity mocks the GetCallerIdentity operation
func (f *FakeSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.GetCallerIdentityCalls++

	if f.Err != nil {
		return nil, f.Err
	}

	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.ARN),
		UserId:  aws.String(f.UserID),
	}, nil
}
