package limiter

import "time"

// timing-related data used to decide when an origin may be fetched again
type originTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	backoffCount int
}

func (o originTiming) BackOffDelay() time.Duration {
	return o.backoffDelay
}

func (o originTiming) LastFetchAt() time.Time {
	return o.lastFetchAt
}

func (o originTiming) BackoffCount() int {
	return o.backoffCount
}
