// Package providers contains the AWS-backed implementations of the
// secretstore interfaces: SSM Parameter Store as the Store, Secrets Manager
// as the key Generator, and STS for caller account discovery.
package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// ClientConfig holds the connection settings shared by every AWS client.
// Zero values defer to the ambient AWS configuration chain (environment,
// shared config files, instance metadata).
type ClientConfig struct {
	Region  string
	Profile string

	// Endpoint overrides the service endpoint, for LocalStack or testing.
	Endpoint string

	// AccessKeyID and SecretAccessKey set static credentials, for
	// LocalStack or testing. Production use relies on the ambient chain.
	AccessKeyID     string
	SecretAccessKey string
}

// loadAWSConfig resolves the ambient AWS configuration, layering in any
// explicit region, profile, or static credentials from cc.
func loadAWSConfig(ctx context.Context, cc ClientConfig) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error

	if cc.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cc.Region))
	}

	if cc.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cc.Profile))
	}

	if cc.AccessKeyID != "" && cc.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKeyID, cc.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}
