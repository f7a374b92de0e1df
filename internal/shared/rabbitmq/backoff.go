package rabbitmq

import "time"

const (
	BackoffStep = 500 * time.Millisecond
	BackoffCap  = 5 * time.Second
)

// Backoff returns the wait before retrying after the attempt-th consecutive
// failure: min(BackoffCap, attempt*BackoffStep). Attempts start at 1.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt >= int(BackoffCap/BackoffStep) {
		return BackoffCap
	}
	return time.Duration(attempt) * BackoffStep
}
