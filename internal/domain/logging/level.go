package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Levels are totally ordered:
// debug < info < warn < error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Levels lists every level from lowest to highest priority.
// Overflow eviction scans the queue in this order.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLevel converts a level tag ("debug", "info", "warn", "error") to a Level.
// Matching is case-insensitive; "warning" is accepted as an alias for warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unrecognized log level %q", s)
	}
}

// Rank returns the ordinal used for filtering comparisons.
func (l Level) Rank() int {
	return int(l)
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Upper returns the uppercase tag used in console output, e.g. "WARN".
func (l Level) Upper() string {
	return strings.ToUpper(l.String())
}

// AtLeast reports whether l is at or above min.
func (l Level) AtLeast(min Level) bool {
	return l.Rank() >= min.Rank()
}

func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid level %d", int(l))
	}
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
