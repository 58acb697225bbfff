package utils

import "time"

// maxBackoffShift caps the exponent so the shift can never overflow.
const maxBackoffShift = 30

// BackoffDelay returns base * 2^attempt, where attempt is zero-indexed:
// the first retry waits exactly base.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return base * time.Duration(1<<attempt)
}

// BackoffSchedule lists every delay slept by a retry loop with the given
// number of retries.
func BackoffSchedule(base time.Duration, retries int) []time.Duration {
	schedule := make([]time.Duration, 0, retries)
	for attempt := 0; attempt < retries; attempt++ {
		schedule = append(schedule, BackoffDelay(base, attempt))
	}
	return schedule
}

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
