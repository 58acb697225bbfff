package config

import (
	"time"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// LoggingConfig is the validated configuration shared by the logger and its queue.
type LoggingConfig struct {
	// Backend endpoint receiving POSTed batches
	APIEndpoint string `json:"apiEndpoint" validate:"required,url"`

	// Number of entries that triggers a flush, and the maximum batch size
	BatchSize int `json:"batchSize" validate:"gt=0"`

	// Auto-flush period in milliseconds
	FlushInterval int `json:"flushInterval" validate:"gt=0"`

	// Capacity of the in-memory queue; expected to be >= BatchSize
	MaxQueueSize int `json:"maxQueueSize" validate:"gt=0"`

	// Minimum level accepted: debug, info, warn, error
	LogLevel string `json:"logLevel" validate:"required,oneof=debug info warn error"`

	// Retries after the first failed send
	RetryAttempts int `json:"retryAttempts" validate:"gte=0"`

	// Base delay for exponential backoff, in milliseconds
	RetryDelayMs int `json:"retryDelayMs" validate:"gt=0"`

	// When false every log call is a no-op
	Enabled bool `json:"enabled"`
}

// Level returns the configured minimum level.
func (c LoggingConfig) Level() logging.Level {
	lvl, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return lvl
}

// FlushEvery returns FlushInterval as a duration.
func (c LoggingConfig) FlushEvery() time.Duration {
	return time.Duration(c.FlushInterval) * time.Millisecond
}

// RetryDelay returns RetryDelayMs as a duration.
func (c LoggingConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Overrides is a partial LoggingConfig. Nil fields keep the value they are
// merged over.
type Overrides struct {
	APIEndpoint   *string `json:"apiEndpoint,omitempty"`
	BatchSize     *int    `json:"batchSize,omitempty"`
	FlushInterval *int    `json:"flushInterval,omitempty"`
	MaxQueueSize  *int    `json:"maxQueueSize,omitempty"`
	LogLevel      *string `json:"logLevel,omitempty"`
	RetryAttempts *int    `json:"retryAttempts,omitempty"`
	RetryDelayMs  *int    `json:"retryDelayMs,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
}

// ApplyTo returns base with every non-nil field of o copied over it.
func (o Overrides) ApplyTo(base LoggingConfig) LoggingConfig {
	if o.APIEndpoint != nil {
		base.APIEndpoint = *o.APIEndpoint
	}
	if o.BatchSize != nil {
		base.BatchSize = *o.BatchSize
	}
	if o.FlushInterval != nil {
		base.FlushInterval = *o.FlushInterval
	}
	if o.MaxQueueSize != nil {
		base.MaxQueueSize = *o.MaxQueueSize
	}
	if o.LogLevel != nil {
		base.LogLevel = *o.LogLevel
	}
	if o.RetryAttempts != nil {
		base.RetryAttempts = *o.RetryAttempts
	}
	if o.RetryDelayMs != nil {
		base.RetryDelayMs = *o.RetryDelayMs
	}
	if o.Enabled != nil {
		base.Enabled = *o.Enabled
	}
	return base
}

// Ptr returns a pointer to v. Handy for building Overrides literals.
func Ptr[T any](v T) *T {
	return &v
}
