package console

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// Writer prints entries in the unified console format:
//
//	[<timestamp>] [<LEVEL>] [<SOURCE>] [<COMPONENT>] <message> <contextJSON>
//	<stackTrace>
//
// debug and info go to the standard stream, warn and error to the error stream.
type Writer struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// New returns a Writer bound to the given streams.
func New(stdout, stderr io.Writer) *Writer {
	return &Writer{stdout: stdout, stderr: stderr}
}

// NewStd returns a Writer bound to os.Stdout and os.Stderr.
func NewStd() *Writer {
	return New(os.Stdout, os.Stderr)
}

// Write implements logging.Console.
func (w *Writer) Write(entry logging.Entry) {
	w.writeLine(w.streamFor(entry.Level), Format(entry))
}

// Marker implements logging.Console.
func (w *Writer) Marker(message string) {
	w.writeLine(w.stderr, "[WARN] "+message)
}

func (w *Writer) streamFor(level logging.Level) io.Writer {
	switch level {
	case logging.LevelWarn, logging.LevelError:
		return w.stderr
	default:
		return w.stdout
	}
}

func (w *Writer) writeLine(out io.Writer, line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(out, line)
}

// Format renders one entry. The context part is omitted when empty, and the
// stack trace, when present, follows on the next line.
func Format(entry logging.Entry) string {
	var b strings.Builder
	component := entry.Component
	if component == "" {
		component = logging.DefaultComponent
	}

	fmt.Fprintf(&b, "[%s] [%s] [%s] [%s] %s",
		entry.Timestamp,
		entry.Level.Upper(),
		strings.ToUpper(entry.Source),
		strings.ToUpper(component),
		entry.Message,
	)

	if len(entry.Context) > 0 {
		data, err := json.Marshal(entry.Context)
		if err != nil {
			data = []byte(`"` + logging.Unserializable + `"`)
		}
		b.WriteByte(' ')
		b.Write(data)
	}

	if entry.StackTrace != "" {
		b.WriteByte('\n')
		b.WriteString(entry.StackTrace)
	}

	return b.String()
}
