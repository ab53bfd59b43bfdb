// Package retry re-runs operations that fail with transient errors.
//
// Only document downloads are retried. Authentication and listing requests
// are deliberately single-shot: a failed login or page fetch is reported as
// is rather than replayed.
//
//	err := retry.Do(ctx, &retry.Config{
//	    MaxAttempts: 3,
//	    Backoff:     retry.DefaultExponentialBackoff(),
//	}, func() error {
//	    return fetch(ctx)
//	})
package retry
