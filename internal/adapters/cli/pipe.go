package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/adapters/metrics"
	"github.com/andrescamacho/logrelay/internal/adapters/transport"
	"github.com/andrescamacho/logrelay/internal/application/logger"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/infrastructure/pidfile"
)

// NewPipeCommand creates the pipe command
func NewPipeCommand() *cobra.Command {
	var (
		level       string
		component   string
		metricsAddr string
		pidPath     string
		mirror      bool
	)

	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Forward every stdin line as a log entry",
		Long: `Read stdin line by line and log each line. Entries are flushed in batches
and on the configured interval; the queue is drained on EOF or interrupt.

Examples:
  ./server 2>&1 | logrelay pipe --component server
  tail -f app.log | logrelay pipe --level warn --metrics-addr :9100
  tail -f app.log | logrelay pipe --pid-file /run/logrelay.pid`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			lvl, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}

			if pidPath != "" {
				pid := pidfile.New(pidPath)
				if err := pid.Acquire(); err != nil {
					return err
				}
				defer func() { _ = pid.Release() }()
			}

			var extra runtimeOptions
			var collector *metrics.QueueMetricsCollector
			if metricsAddr != "" {
				metrics.InitRegistry()
				collector = metrics.NewQueueMetricsCollector()
				requests := metrics.NewTransportMetricsCollector()
				if err := collector.Register(); err != nil {
					return fmt.Errorf("failed to register metrics: %w", err)
				}
				if err := requests.Register(); err != nil {
					return fmt.Errorf("failed to register metrics: %w", err)
				}
				extra.logger = append(extra.logger, logger.WithRecorder(collector))
				extra.transport = append(extra.transport,
					transport.WithRoundTripper(metrics.InstrumentRoundTripper(requests)),
					transport.WithRateLimitObserver(requests.RecordRateLimitWait),
				)
			}
			extra.logger = append(extra.logger, logger.WithConsoleMirror(mirror))

			rt, err := newRuntime(cmd, extra)
			if err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = rt.closeAfterPanic(r, "pipe")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if collector != nil {
				server := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
				rt.handler.Go("metrics-server", func() error {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				defer server.Close()
				rt.diag.Info("metrics exposed", zap.String("addr", metricsAddr))
			}

			rt.logger.Start()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 64*1024), 1024*1024)
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
				if err := scanner.Err(); err != nil {
					rt.logger.LogException(err, "failed to read stdin")
				}
			}()

			count := 0
		loop:
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						break loop
					}
					rt.logger.LogWithComponent(lvl, component, line)
					count++
				case <-ctx.Done():
					break loop
				}
			}

			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			closeErr := rt.logger.Close(drainCtx)

			fmt.Fprintf(cmd.ErrOrStderr(), "Forwarded %d line(s)\n", count)
			if closeErr != nil {
				return fmt.Errorf("some entries were written to console instead: %w", closeErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "info", "Level for every line: debug, info, warn, error")
	cmd.Flags().StringVarP(&component, "component", "c", "", "Component attribution (default: general)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	cmd.Flags().StringVar(&pidPath, "pid-file", "", "Refuse to start while another forwarder owns this PID file")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Also print every entry to the console")

	return cmd
}
