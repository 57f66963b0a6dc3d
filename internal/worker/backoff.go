package worker

import "time"

// Fixed backoff lookup rather than exponential-with-jitter: simple and
// predictable for a low-concurrency in-process scheduler. Indexed by the
// number of attempts already made.
var backoffTable = []time.Duration{
	0,
	2 * time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
}

const maxBackoff = 60 * time.Second

// Backoff returns the delay imposed before the next retry after the given
// number of attempts.
func Backoff(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	if attempts < len(backoffTable) {
		return backoffTable[attempts]
	}
	return maxBackoff
}
