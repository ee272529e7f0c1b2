package fetcher

import (
	"context"

	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
