package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/adapters/console"
	"github.com/andrescamacho/logrelay/internal/adapters/transport"
	"github.com/andrescamacho/logrelay/internal/application/exceptions"
	"github.com/andrescamacho/logrelay/internal/application/logger"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
	diag "github.com/andrescamacho/logrelay/internal/infrastructure/logging"
)

const (
	breakerMaxFailures = 5
	breakerCooldown    = 30 * time.Second
)

// runtime bundles everything a command needs to emit entries.
type runtime struct {
	cfg       *config.Manager
	diag      *zap.Logger
	transport *transport.HTTPTransport
	logger    *logger.Logger
	handler   *exceptions.Handler
}

// runtimeOptions extends the default wiring of newRuntime.
type runtimeOptions struct {
	transport []transport.Option
	logger    []logger.Option
}

// newRuntime loads configuration and wires the logger. Console output follows
// the command's streams so tests can capture it.
func newRuntime(cmd *cobra.Command, extra runtimeOptions) (*runtime, error) {
	cfg, err := config.LoadManager(configPath)
	if err != nil {
		return nil, err
	}

	base := diag.NewDiagnostics(diag.Options{
		Verbose: verbose,
		Out:     cmd.ErrOrStderr(),
	})

	topts := append([]transport.Option{
		transport.WithDiagnostics(base),
		transport.WithCircuitBreaker(transport.NewCircuitBreaker(breakerMaxFailures, breakerCooldown, nil)),
	}, extra.transport...)
	tr := transport.NewHTTPTransport(topts...)

	all := append([]logger.Option{
		logger.WithProduct(productName, Version),
		logger.WithDiagnostics(base),
		logger.WithConsole(console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())),
	}, extra.logger...)
	l := logger.New(cfg, tr, all...)

	return &runtime{
		cfg:       cfg,
		diag:      diag.For(base, diag.ComponentCLI),
		transport: tr,
		logger:    l,
		handler:   exceptions.New(l, exceptions.WithDiagnostics(base)),
	}, nil
}

// closeAfterPanic logs a recovered panic and closes the logger, so the panic
// entry and anything still queued is delivered or printed to the console.
func (rt *runtime) closeAfterPanic(r any, location string) error {
	rt.handler.ReportPanic(r, location)

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := rt.logger.Close(ctx); err != nil {
		rt.diag.Warn("delivery failed while closing after panic", zap.Error(err))
	}
	return fmt.Errorf("%s: recovered from panic: %v", location, r)
}

// parseFields turns repeated key=value flags into Fields. Values that parse
// as numbers or booleans keep that type.
func parseFields(pairs []string) (logging.Fields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(logging.Fields, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: expected key=value", pair)
		}
		fields[key] = parseScalar(value)
	}
	return fields, nil
}

func parseScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
