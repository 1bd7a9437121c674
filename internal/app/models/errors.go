package models

import "errors"

// Domain specific errors for the resolution pipeline.
var (
	// ErrNoResults means the geocoder returned no candidates; the affected
	// event is dropped from the output, never surfaced as a pass error.
	ErrNoResults = errors.New("no geocoding candidates found")

	// ErrMalformedResponse marks an upstream payload that could not be
	// decoded. Callers treat it exactly like ErrNoResults.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrRateLimited is the explicit throttling signal inside the fetch
	// pipeline's retry loop.
	ErrRateLimited = errors.New("upstream rate limit hit")

	// ErrRetryBudgetExhausted is returned after the pipeline has spent its
	// retry budget. Callers degrade to an approximation instead of failing
	// the whole pass.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

	// ErrCacheCorrupted is the only catastrophic, user-visible failure: the
	// durable cache exists but cannot be read.
	ErrCacheCorrupted = errors.New("durable cache unreadable")
)
