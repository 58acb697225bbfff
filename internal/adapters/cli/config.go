package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Inspect the effective logrelay configuration.

Examples:
  logrelay config show
  logrelay config show --json
  logrelay config validate --config ./logrelay.json`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadManager(configPath)
			if err != nil {
				return err
			}
			c := cfg.Config()
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintln(out, "logrelay Configuration")
			fmt.Fprintln(out, "======================")
			printf(out, "  API Endpoint:     %s\n", c.APIEndpoint)
			printf(out, "  Enabled:          %t\n", c.Enabled)
			printf(out, "  Log Level:        %s\n", c.LogLevel)
			printf(out, "  Batch Size:       %d\n", c.BatchSize)
			printf(out, "  Max Queue Size:   %d\n", c.MaxQueueSize)
			printf(out, "  Flush Interval:   %s\n", c.FlushEvery())
			printf(out, "  Retry Attempts:   %d\n", c.RetryAttempts)
			printf(out, "  Retry Delay:      %s\n", c.RetryDelay())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit non-zero on error",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadManager(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
			return nil
		},
	}
}
