package fetcher

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/cache"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/limiter"
	"github.com/rohmanhakim/spotcrime/pkg/retry"
	"github.com/rohmanhakim/spotcrime/pkg/urlutil"
)

/*
CachingFetcher implements fetch-or-cache.

  - Lookup is by exact URL string. A hit returns immediately: no freshness
    check, no network and no delay.
  - A miss waits on the rate limiter for the URL's origin, fetches live,
    stores the body under the URL and saves the cache before returning.
  - Index pages (state and city tables) are cached as the extracted mapping
    rather than the raw page.

A failed cache save is recorded by the cache itself and does not fail the
fetch; the entry stays in memory for the rest of the process.
*/
type CachingFetcher struct {
	fetcher      Fetcher
	cache        cache.Cache
	limiter      limiter.RateLimiter
	metadataSink metadata.MetadataSink
	userAgent    string
	retryParam   retry.RetryParam
	liveFetches  atomic.Int64
	cacheHits    atomic.Int64
}

// IndexExtractor turns a page into a name -> URL mapping.
type IndexExtractor func(content []byte) (map[string]string, failure.ClassifiedError)

func NewCachingFetcher(
	fetcher Fetcher,
	pageCache cache.Cache,
	rateLimiter limiter.RateLimiter,
	metadataSink metadata.MetadataSink,
	userAgent string,
	retryParam retry.RetryParam,
) *CachingFetcher {
	return &CachingFetcher{
		fetcher:      fetcher,
		cache:        pageCache,
		limiter:      rateLimiter,
		metadataSink: metadataSink,
		userAgent:    userAgent,
		retryParam:   retryParam,
	}
}

// FetchOrCached returns the page body for rawURL and whether it came from the cache.
func (c *CachingFetcher) FetchOrCached(ctx context.Context, rawURL string) (string, bool, failure.ClassifiedError) {
	if entry, ok := c.cache.Get(rawURL); ok && !entry.IsIndex() {
		c.cacheHits.Add(1)
		c.metadataSink.RecordCacheLookup(rawURL, true)
		return entry.Text(), true, nil
	}
	c.metadataSink.RecordCacheLookup(rawURL, false)

	body, err := c.fetchLive(ctx, rawURL)
	if err != nil {
		return "", false, err
	}

	c.cache.Put(rawURL, cache.TextEntry(string(body)))
	_ = c.cache.Save()
	return string(body), false, nil
}

// IndexOrCached returns the index mapping stored under rawURL. On a miss the
// page is fetched live, run through extract and the mapping is cached.
// A text entry under the same key is re-extracted without a network call.
func (c *CachingFetcher) IndexOrCached(
	ctx context.Context,
	rawURL string,
	extract IndexExtractor,
) (map[string]string, bool, failure.ClassifiedError) {
	if entry, ok := c.cache.Get(rawURL); ok {
		c.cacheHits.Add(1)
		c.metadataSink.RecordCacheLookup(rawURL, true)
		if entry.IsIndex() {
			return entry.Index(), true, nil
		}
		index, err := extract([]byte(entry.Text()))
		if err != nil {
			return nil, true, err
		}
		return index, true, nil
	}
	c.metadataSink.RecordCacheLookup(rawURL, false)

	body, err := c.fetchLive(ctx, rawURL)
	if err != nil {
		return nil, false, err
	}

	index, err := extract(body)
	if err != nil {
		return nil, false, err
	}

	c.cache.Put(rawURL, cache.IndexEntry(index))
	_ = c.cache.Save()
	return index, false, nil
}

// Stats returns the running hit and live-fetch totals.
func (c *CachingFetcher) Stats() Stats {
	return Stats{
		LiveFetches: int(c.liveFetches.Load()),
		CacheHits:   int(c.cacheHits.Load()),
	}
}

func (c *CachingFetcher) fetchLive(ctx context.Context, rawURL string) ([]byte, failure.ClassifiedError) {
	parsed, parseErr := url.Parse(rawURL)
	origin, originErr := urlutil.Origin(rawURL)
	if parseErr != nil || originErr != nil {
		err := &FetchError{
			Message:   rawURL,
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
		c.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			"CachingFetcher.fetchLive",
			mapFetchErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, rawURL)},
		)
		return nil, err
	}

	waited, waitErr := c.limiter.Wait(ctx, origin)
	if waitErr != nil {
		return nil, &FetchError{
			Message:   waitErr.Error(),
			Retryable: false,
			Cause:     ErrCauseCancelled,
		}
	}
	if waited > 0 {
		c.metadataSink.RecordRateLimitWait(origin, waited)
	}

	c.liveFetches.Add(1)
	result, err := c.fetcher.Fetch(ctx, NewFetchParam(*parsed, c.userAgent), c.retryParam)
	c.limiter.MarkLastFetchAsNow(origin)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && fetchErr.Cause == ErrCauseRequestTooMany {
			c.limiter.Backoff(origin)
		}
		return nil, err
	}
	c.limiter.ResetBackoff(origin)

	return result.Body(), nil
}
