package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/logrelay/internal/adapters/transport"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check collector health status",
		Long:  `Probe the collector's /health endpoint derived from the configured apiEndpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.logger.Close(context.Background())

			probe := transport.NewHTTPTransport(
				transport.WithRoundTripper(rt.handler.RoundTripper),
				transport.WithRateLimit(0, 0),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			health, err := probe.Health(ctx, rt.cfg.Endpoint())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Collector is healthy")
			printf(out, "  Status:    %s\n", health.Status)
			if health.Service != "" {
				printf(out, "  Service:   %s\n", health.Service)
			}
			if health.Timestamp != "" {
				printf(out, "  Timestamp: %s\n", health.Timestamp)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")
	return cmd
}
