package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
	"github.com/gatekey/gatekey/internal/keycache"
)

// checkResult is one row of doctor output
type checkResult struct {
	Name    string
	Status  string // healthy, error, skipped
	Message string
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var (
		stackName   string
		endpointURL string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, cache, and AWS connectivity",
		Long: `Verify that gatekey can resolve keys in this environment.

This command checks:
- Configuration file validity
- Local key cache readability
- AWS credentials (sts:GetCallerIdentity)
- Parameter store reachability
- Key generator reachability

The AWS checks use the connection settings of --stack, or of the first
declared stack when --stack is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, 0, 5)

			configOK := false
			if err := cfg.Load(); err != nil {
				results = append(results, checkResult{"configuration", "error", err.Error()})
			} else {
				configOK = true
				results = append(results, checkResult{"configuration", "healthy",
					fmt.Sprintf("%d stacks declared", len(cfg.Definition.Stacks))})
			}

			cachePath := keycache.DefaultPath()
			if cache, err := openKeyCache(cachePath); err != nil {
				results = append(results, checkResult{"key cache", "error", err.Error()})
			} else {
				results = append(results, checkResult{"key cache", "healthy",
					fmt.Sprintf("%d keys at %s", cache.Len(), cachePath)})
			}

			if !configOK {
				// Region and profile come from the configuration, so the AWS
				// probes would test the wrong environment without it.
				results = append(results,
					checkResult{"aws credentials", "skipped", "fix the configuration first"},
					checkResult{"parameter store", "skipped", "fix the configuration first"},
					checkResult{"key generator", "skipped", "fix the configuration first"},
				)
			} else {
				results = append(results, runBackendChecks(cfg, stackName, endpointURL)...)
			}

			displayCheckResults(results)

			healthy := 0
			for _, r := range results {
				if r.Status == "healthy" {
					healthy++
				}
			}
			fmt.Printf("\nSummary: %d/%d checks passed\n", healthy, len(results))

			if healthy < len(results) {
				return fmt.Errorf("some checks failed")
			}

			cfg.Logger.Info("ready to resolve keys")
			return nil
		},
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "Use this stack's connection settings for the AWS checks")
	cmd.Flags().StringVar(&endpointURL, "endpoint-url", "", "Override the AWS endpoint (LocalStack, VPC endpoints)")

	return cmd
}

// runBackendChecks probes STS, the parameter store, and the generator using
// one stack's connection settings.
func runBackendChecks(cfg *config.Config, stackName, endpointURL string) []checkResult {
	if stackName == "" {
		if names := cfg.StackNames(); len(names) > 0 {
			stackName = names[0]
		} else {
			stackName = "default"
		}
	}

	rs, err := cfg.ResolveStack(stackName, config.Overrides{})
	if err != nil {
		msg := fmt.Sprintf("cannot resolve stack %q: %v", stackName, err)
		return []checkResult{
			{"aws credentials", "error", msg},
			{"parameter store", "skipped", "stack settings unavailable"},
			{"key generator", "skipped", "stack settings unavailable"},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	b, err := buildBackends(ctx, clientConfigFor(rs, endpointURL), cfg.Logger)
	if err != nil {
		msg := err.Error()
		return []checkResult{
			{"aws credentials", "error", msg},
			{"parameter store", "skipped", msg},
			{"key generator", "skipped", msg},
		}
	}

	results := make([]checkResult, 0, 3)

	if identity, err := b.accounts.CallerIdentity(ctx); err != nil {
		results = append(results, checkResult{"aws credentials", "error", err.Error()})
	} else {
		results = append(results, checkResult{"aws credentials", "healthy",
			fmt.Sprintf("account %s (%s)", identity.Account, identity.ARN)})
	}

	if err := b.store.Validate(ctx); err != nil {
		results = append(results, checkResult{"parameter store", "error", err.Error()})
	} else {
		results = append(results, checkResult{"parameter store", "healthy", "reachable"})
	}

	if err := b.generator.Validate(ctx); err != nil {
		results = append(results, checkResult{"key generator", "error", err.Error()})
	} else {
		results = append(results, checkResult{"key generator", "healthy", "reachable"})
	}

	return results
}

func displayCheckResults(results []checkResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, r := range results {
		status := r.Status
		switch r.Status {
		case "healthy":
			status = "✓ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "- " + status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, r.Message)
	}

	_ = w.Flush()
}
