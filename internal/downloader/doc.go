// Package downloader fetches mapped documents and hands them to storage.
//
// Each fetch is retried on transient errors (network, rate limit, server) up
// to Options.MaxAttempts; anything else fails the document immediately.
// Failures come back in the Result so the caller can move on to the next
// document.
package downloader
