package config

const (
	DefaultAPIEndpoint   = "http://localhost:8000/api/logs"
	DefaultBatchSize     = 10
	DefaultFlushInterval = 5000 // ms
	DefaultMaxQueueSize  = 100
	DefaultLogLevel      = "info"
	DefaultRetryAttempts = 3
	DefaultRetryDelayMs  = 1000
)

// DefaultLoggingConfig returns the documented defaults for every field
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		APIEndpoint:   DefaultAPIEndpoint,
		BatchSize:     DefaultBatchSize,
		FlushInterval: DefaultFlushInterval,
		MaxQueueSize:  DefaultMaxQueueSize,
		LogLevel:      DefaultLogLevel,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelayMs:  DefaultRetryDelayMs,
		Enabled:       true,
	}
}
