// Package httputil provides HTTP utilities for repository clients.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError],
// doubling the delay after each attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetchPOM(ctx, url)
//	})
//
// Wrap transient failures (network errors, 5xx and 429 responses) in
// [RetryableError]; every other error stops the loop immediately. Set
// RetryAfter from the response's Retry-After header ([ParseRetryAfter]) and
// Retry waits at least that long, up to [MaxRetryAfter].
// [RetryWithBackoff] uses 3 attempts starting at one second.
//
// Response caching lives in package cache.
package httputil
