package retry

import (
	"time"

	"github.com/rohmanhakim/spotcrime/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters come from config and are not known by the retry handler internally.
type RetryParam struct {
	Jitter       time.Duration
	RandomSeed   int64
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	jitter time.Duration,
	randomSeed int64,
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		Jitter:       jitter,
		RandomSeed:   randomSeed,
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}

// SingleAttempt runs the task once with no backoff.
func SingleAttempt() RetryParam {
	return RetryParam{MaxAttempts: 1}
}
