package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X .../cli.Version=..."
var Version = "1.0.0"

const productName = "logrelay"

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logrelay",
		Short: "logrelay - ship log entries to a central collector",
		Long: `logrelay batches log entries and delivers them to an HTTP collector,
falling back to console output whenever the collector cannot be reached.

Configuration is loaded from multiple sources with priority:
1. Environment variables (LOGRELAY_* prefix, .env supported)
2. Config file (logrelay.json in ., ./config or ~/.logrelay)
3. Default values

Examples:
  logrelay send "deploy finished" --level info --component deploy --field sha=4f2a1c
  tail -f app.log | logrelay pipe --component app --metrics-addr :9100
  logrelay config show
  logrelay config validate --config ./logrelay.json
  logrelay health`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a config file (default: search logrelay.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Print logrelay's own diagnostics down to debug level")

	rootCmd.AddCommand(NewSendCommand())
	rootCmd.AddCommand(NewPipeCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewHealthCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
