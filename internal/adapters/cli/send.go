package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

const drainTimeout = 30 * time.Second

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	var (
		level     string
		component string
		fields    []string
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a single log entry",
		Long: `Send one log entry and wait until it is delivered or written to the console.

Examples:
  logrelay send "cache warmed" --component cache
  logrelay send "payment failed" --level error --field orderId=o-81 --field retry=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}
			ctxFields, err := parseFields(fields)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}

			message := strings.Join(args, " ")
			if !rt.cfg.ShouldLog(lvl) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Entry below configured level %q, not sent\n", rt.cfg.Config().LogLevel)
			}
			rt.logger.LogWithComponent(lvl, component, message, ctxFields)

			ctx, cancel := context.WithTimeout(cmd.Context(), drainTimeout)
			defer cancel()
			if err := rt.logger.Close(ctx); err != nil {
				return fmt.Errorf("delivery failed, entry written to console: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Sent to %s\n", rt.cfg.Endpoint())
			return nil
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "info", "Entry level: debug, info, warn, error")
	cmd.Flags().StringVarP(&component, "component", "c", "", "Component attribution (default: general)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Context field as key=value (repeatable)")

	return cmd
}
