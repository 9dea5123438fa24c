package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
	dserrors "github.com/gatekey/gatekey/internal/errors"
	"github.com/gatekey/gatekey/internal/keycache"
	"github.com/gatekey/gatekey/internal/resolve"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand(cfg *config.Config) *cobra.Command {
	var (
		stackName   string
		account     string
		region      string
		profile     string
		keyID       string
		endpointURL string
		testMode    bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the API key for a stack",
		Long: `Resolve a stack's API key through the local cache, the parameter store,
and the remote generator, in that order.

The first run for a stack generates a key and stores it; every run after
that returns the same key, from the local cache when possible. By default
only the raw key is printed, so the command slots into scripts.

Examples:
  # Resolve the key for one stack
  gatekey resolve --stack orders-api

  # Use it in a deploy script
  curl -H "x-api-key: $(gatekey resolve --stack orders-api)" https://...

  # Include provenance
  gatekey resolve --stack orders-api --json

  # Exercise deploy wiring with no credentials, cache, or network
  gatekey resolve --stack orders-api --test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stackName == "" {
				return dserrors.UserError{
					Message:    "Stack name is required",
					Suggestion: "Use --stack <stack-name> to specify which stack's key to resolve",
				}
			}

			ctx := context.Background()

			// Test mode runs before configuration and cache access so it
			// works in pipelines that have neither.
			if testMode {
				resolver := resolve.New(resolve.Options{TestMode: true, Logger: cfg.Logger})
				res, err := resolver.Resolve(ctx, account, stackName)
				if err != nil {
					return err
				}
				return printResolution(res, jsonOutput)
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			rs, err := cfg.ResolveStack(stackName, config.Overrides{
				Account: account,
				Region:  region,
				Profile: profile,
				KeyID:   keyID,
			})
			if err != nil {
				return err
			}

			cache, err := openKeyCache(keycache.DefaultPath())
			if err != nil {
				return err
			}

			b, err := buildBackends(ctx, clientConfigFor(rs, endpointURL), cfg.Logger)
			if err != nil {
				return err
			}

			if err := ensureAccount(ctx, &rs, b, cfg.Logger); err != nil {
				return err
			}

			resolver := resolve.New(resolve.Options{
				Store:     b.store,
				Generator: b.generator,
				Cache:     cache,
				Logger:    cfg.Logger,
				KeyID:     rs.KeyID,
				KeyLength: rs.KeyLength,
			})

			res, err := resolver.Resolve(ctx, rs.Account, rs.Name)
			if err != nil {
				return friendlyResolveError(err)
			}

			return printResolution(res, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "Stack name (required)")
	cmd.Flags().StringVar(&account, "account", "", "Account ID (discovered via STS when omitted)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile")
	cmd.Flags().StringVar(&keyID, "key-id", "", "KMS key ID or alias for encrypting new parameters")
	cmd.Flags().StringVar(&endpointURL, "endpoint-url", "", "Override the AWS endpoint (LocalStack, VPC endpoints)")
	cmd.Flags().BoolVar(&testMode, "test", false, "Return the fixed test key with no cache or network access")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON with provenance")
	_ = cmd.MarkFlagRequired("stack")

	return cmd
}

// printResolution writes the result to stdout and wipes the key material.
func printResolution(res *resolve.Resolution, jsonOutput bool) error {
	defer res.Destroy()

	value, err := res.Key()
	if err != nil {
		return err
	}

	if !jsonOutput {
		// Raw value with no trailing newline, for $(...) capture
		fmt.Print(value)
		return nil
	}

	output := struct {
		Stack     string         `json:"stack"`
		Account   string         `json:"account,omitempty"`
		Parameter string         `json:"parameter"`
		Source    resolve.Source `json:"source"`
		Version   int64          `json:"version,omitempty"`
		Key       string         `json:"key"`
	}{
		Stack:     res.Stack,
		Account:   res.Account,
		Parameter: res.Parameter,
		Source:    res.Source,
		Version:   res.Version,
		Key:       value,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
