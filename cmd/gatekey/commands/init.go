package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
)

const starterConfig = `version: 0

# Connection defaults shared by every stack.
defaults:
  region: us-east-1
  # profile: deploy
  # key_id: alias/gatekey

# One entry per gateway stack. A stack named my-stack keeps its key in the
# parameter /my-stack/api-key and secures requests via the x-api-key header.
stacks:
  my-stack:
    # account: "123456789012"  # discovered via sts:GetCallerIdentity when omitted
    # region: us-west-2        # overrides defaults.region for this stack
    # key_length: 40
    # methods: [GET, POST]     # every method is secured when omitted
    # throttle:
    #   burst_limit: 500
    #   rate_limit: 1000
    # quota:
    #   limit: 10000000
    #   period: MONTH
`

// NewInitCommand creates the init command
func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration",
		Long:  "Create a gatekey.yaml file with a commented example stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("%s already exists. Remove it first if you want to reinitialize", cfg.Path)
			}

			if err := os.WriteFile(cfg.Path, []byte(starterConfig), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Rename my-stack and fill in your account and region")
			cfg.Logger.Info("  2. Run 'gatekey doctor' to verify AWS connectivity")
			cfg.Logger.Info("  3. Run 'gatekey plan' to see what the first resolve will do")
			cfg.Logger.Info("  4. Run 'gatekey resolve --stack <name>' during your deploy")

			return nil
		},
	}

	return cmd
}
