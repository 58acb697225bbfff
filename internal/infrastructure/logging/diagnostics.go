package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	gray   = "\033[90m"
	red    = "\033[91m"
	yellow = "\033[93m"
	white  = "\033[97m"
)

// Component names the part of logrelay a diagnostic line comes from.
type Component string

const (
	ComponentQueue     Component = "QUEUE"
	ComponentLogger    Component = "LOGGER"
	ComponentTransport Component = "TRANSPORT"
	ComponentHandler   Component = "EXCEPTIONS"
	ComponentCLI       Component = "CLI"
)

// Options controls how diagnostics are rendered.
type Options struct {
	// Verbose lowers the threshold from warn to debug
	Verbose bool
	// Colors enables ANSI colors in the console encoder
	Colors bool
	// Out defaults to stderr, which keeps diagnostics apart from piped output
	Out io.Writer
}

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return gray
	case zapcore.InfoLevel:
		return white
	case zapcore.WarnLevel:
		return yellow
	default:
		return red
	}
}

// consoleEncoder renders "15:04:05 W queue message key=value" lines.
func consoleEncoder(colors bool) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()

	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		ts := t.Format("15:04:05")
		if colors {
			ts = dim + ts + reset
		}
		enc.AppendString(ts)
	}

	// Single letter level: D, I, W, E
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		letter := strings.ToUpper(level.String())[:1]
		if colors {
			letter = fmt.Sprintf("%s%s%s%s", levelColor(level), bold, letter, reset)
		}
		enc.AppendString(letter)
	}

	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + strings.ToUpper(name) + "]")
	}

	cfg.CallerKey = ""
	cfg.StacktraceKey = ""

	return zapcore.NewConsoleEncoder(cfg)
}

// NewDiagnostics builds the logger logrelay uses to report on itself
// (drops, retries, fallbacks). It never feeds back into the log queue.
func NewDiagnostics(opts Options) *zap.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	threshold := zapcore.WarnLevel
	if opts.Verbose {
		threshold = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		consoleEncoder(opts.Colors),
		zapcore.AddSync(out),
		threshold,
	)
	return zap.New(core)
}

// For returns a child logger tagged with component. A nil base yields a no-op logger.
func For(base *zap.Logger, component Component) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(string(component))
}
