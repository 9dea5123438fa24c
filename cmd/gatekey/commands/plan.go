package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
	dserrors "github.com/gatekey/gatekey/internal/errors"
	"github.com/gatekey/gatekey/internal/keycache"
	"github.com/gatekey/gatekey/internal/resolve"
)

// stackPlan is one row of plan output: what the next resolve would do for a
// stack, determined without decrypting or creating anything.
type stackPlan struct {
	Stack     string         `json:"stack"`
	Account   string         `json:"account,omitempty"`
	Parameter string         `json:"parameter,omitempty"`
	Source    resolve.Source `json:"source,omitempty"`
	Version   int64          `json:"version,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewPlanCommand creates the plan command
func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var (
		stackName   string
		account     string
		region      string
		profile     string
		endpointURL string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show where each stack's key would come from",
		Long: `Report, for every configured stack, whether the next resolve would reuse
the local cache, fetch from the parameter store, or generate a new key.

Existence is checked with a metadata call, so no value is decrypted and
nothing is created. Key values never appear in plan output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			stacks := cfg.StackNames()
			if stackName != "" {
				stacks = []string{stackName}
			}
			if len(stacks) == 0 {
				return dserrors.ConfigError{
					Field:      "stacks",
					Message:    "no stacks declared in the configuration",
					Suggestion: "Declare stacks in gatekey.yaml or pass --stack <name>",
				}
			}

			cache, err := openKeyCache(keycache.DefaultPath())
			if err != nil {
				return err
			}

			ctx := context.Background()
			overrides := config.Overrides{Account: account, Region: region, Profile: profile}

			// Account discovery runs at most once, then carries across rows
			discovered := ""

			plans := make([]stackPlan, 0, len(stacks))
			failures := 0
			generating := 0

			for _, name := range stacks {
				plan, err := planStack(ctx, cfg, cache, name, overrides, endpointURL, &discovered)
				if err != nil {
					plan = stackPlan{Stack: name, Error: err.Error()}
				}
				if plan.Error != "" {
					failures++
				}
				if plan.Source == resolve.SourceGenerated {
					generating++
				}
				plans = append(plans, plan)
			}

			if jsonOutput {
				if err := printPlanJSON(plans, generating, failures); err != nil {
					return err
				}
			} else {
				printPlanTable(plans, generating)
			}

			if failures > 0 {
				return fmt.Errorf("plan incomplete: %d of %d stacks could not be checked", failures, len(plans))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "Plan a single stack instead of every configured one")
	cmd.Flags().StringVar(&account, "account", "", "Account ID (discovered via STS when omitted)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile")
	cmd.Flags().StringVar(&endpointURL, "endpoint-url", "", "Override the AWS endpoint (LocalStack, VPC endpoints)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

// planStack determines the resolution source for one stack.
func planStack(ctx context.Context, cfg *config.Config, cache *keycache.Cache, name string, o config.Overrides, endpointURL string, discovered *string) (stackPlan, error) {
	rs, err := cfg.ResolveStack(name, o)
	if err != nil {
		return stackPlan{}, err
	}

	if rs.Account == "" && *discovered != "" {
		rs.Account = *discovered
	}

	b, err := buildBackends(ctx, clientConfigFor(rs, endpointURL), cfg.Logger)
	if err != nil {
		return stackPlan{}, err
	}

	if rs.Account == "" {
		if err := ensureAccount(ctx, &rs, b, cfg.Logger); err != nil {
			return stackPlan{}, err
		}
		*discovered = rs.Account
	}

	plan := stackPlan{
		Stack:     name,
		Account:   rs.Account,
		Parameter: rs.Plan.ParameterName,
	}

	if _, ok := cache.Get(rs.Account, name); ok {
		plan.Source = resolve.SourceLocalCache
		return plan, nil
	}

	meta, err := b.store.Describe(ctx, rs.Plan.ParameterName)
	if err != nil {
		return stackPlan{}, friendlyResolveError(err)
	}

	if meta.Exists {
		plan.Source = resolve.SourceParameterStore
		plan.Version = meta.Version
	} else {
		plan.Source = resolve.SourceGenerated
	}
	return plan, nil
}

func printPlanTable(plans []stackPlan, generating int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "STACK\tPARAMETER\tNEXT RESOLVE\tSTATUS\n")
	_, _ = fmt.Fprintf(w, "-----\t---------\t------------\t------\n")

	for _, p := range plans {
		if p.Error != "" {
			parameter := p.Parameter
			if parameter == "" {
				parameter = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t-\t✗ %s\n", p.Stack, parameter, p.Error)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t✓ ok\n", p.Stack, p.Parameter, describeSource(p))
	}

	_ = w.Flush()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Stacks checked: %d\n", len(plans))
	fmt.Printf("  New keys to generate: %d\n", generating)

	if generating > 0 {
		fmt.Printf("\nRun 'gatekey resolve --stack <name>' to create the missing keys\n")
	}
}

func describeSource(p stackPlan) string {
	switch p.Source {
	case resolve.SourceLocalCache:
		return "reuse cached key"
	case resolve.SourceParameterStore:
		return fmt.Sprintf("fetch stored key (version %d)", p.Version)
	case resolve.SourceGenerated:
		return "generate new key"
	}
	return string(p.Source)
}

func printPlanJSON(plans []stackPlan, generating, failures int) error {
	output := struct {
		Stacks  []stackPlan `json:"stacks"`
		Summary struct {
			Total      int `json:"total"`
			ToGenerate int `json:"to_generate"`
			Errors     int `json:"errors"`
		} `json:"summary"`
	}{Stacks: plans}
	output.Summary.Total = len(plans)
	output.Summary.ToGenerate = generating
	output.Summary.Errors = failures

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
