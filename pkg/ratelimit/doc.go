// Package ratelimit paces outgoing requests to the document vault.
//
// The harvest is strictly sequential, so the limiter never arbitrates between
// concurrent callers; it only spaces consecutive round trips so a full
// listing walk plus downloads does not hammer the service.
//
//	limiter := ratelimit.New(2, 1) // two requests per second, no burst
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
