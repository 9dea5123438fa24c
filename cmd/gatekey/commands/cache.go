package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
	"github.com/gatekey/gatekey/internal/keycache"
)

// NewCacheCommand creates the cache command with its subcommands
func NewCacheCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local key cache",
		Long: `Inspect the local key cache without exposing any key values.

The cache holds one key per account and stack. Entries are added on
successful resolution and never expire; remove the file to force the
next resolve to fetch from the parameter store again.`,
	}

	cmd.AddCommand(
		newCacheListCommand(cfg),
		newCachePathCommand(cfg),
	)

	return cmd
}

func newCacheListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached keys (lengths only, never values)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openKeyCache(keycache.DefaultPath())
			if err != nil {
				return err
			}

			if cache.Len() == 0 {
				fmt.Printf("cache is empty (%s)\n", cache.Path())
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "ACCOUNT\tSTACK\tKEY LENGTH\n")
			_, _ = fmt.Fprintf(w, "-------\t-----\t----------\n")

			for _, account := range cache.Accounts() {
				for _, stack := range cache.Stacks(account) {
					value, _ := cache.Get(account, stack)
					_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", account, stack, len(value))
				}
			}

			_ = w.Flush()

			fmt.Printf("\n%d keys cached at %s\n", cache.Len(), cache.Path())
			return nil
		},
	}
}

func newCachePathCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(keycache.DefaultPath())
			return nil
		},
	}
}
