package helpers

import (
	"fmt"
	"time"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
)

// FixedTime is the timestamp used by entry fixtures
var FixedTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// NewTestEntry builds an entry at FixedTime
func NewTestEntry(level logging.Level, message string) logging.Entry {
	return logging.NewEntry(logging.EntryParams{
		Time:    FixedTime,
		Level:   level,
		Message: message,
	})
}

// NewTestEntries builds n info entries named "<prefix>-<i>"
func NewTestEntries(prefix string, n int) []logging.Entry {
	out := make([]logging.Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewTestEntry(logging.LevelInfo, fmt.Sprintf("%s-%d", prefix, i)))
	}
	return out
}

// NewTestConfig returns a manager with fast retries and a long flush interval,
// so tests control flushing explicitly. Overrides are applied on top.
func NewTestConfig(overrides *config.Overrides) *config.Manager {
	base := &config.Overrides{
		APIEndpoint:   config.Ptr("http://collector.test/api/logs"),
		BatchSize:     config.Ptr(10),
		FlushInterval: config.Ptr(60_000),
		MaxQueueSize:  config.Ptr(100),
		RetryAttempts: config.Ptr(2),
		RetryDelayMs:  config.Ptr(1),
	}
	m := config.MustNewManager(base)
	if overrides != nil {
		if err := m.Update(*overrides); err != nil {
			panic(err)
		}
	}
	return m
}
