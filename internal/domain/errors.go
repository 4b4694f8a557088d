package domain

import "errors"

var (
	// ErrUnconvertibleUnit is returned when a quantity/unit pair cannot be
	// related to the requested basis. Surfaced to the caller, never retried.
	ErrUnconvertibleUnit = errors.New("unit cannot be converted")

	// ErrNoCandidateFound is returned when no adapter yields an acceptable
	// candidate. Triggers a discovery enqueue, surfaced as "queued".
	ErrNoCandidateFound = errors.New("no nutrition candidate found")

	// ErrAdapterTimeout is returned by the fan-out when a single adapter
	// exceeds its per-adapter deadline. Swallowed and logged, never fails
	// the overall request.
	ErrAdapterTimeout = errors.New("adapter timed out")

	// ErrAdapterFailure is returned when an adapter request fails for a
	// transient reason. Contained at the fan-out boundary.
	ErrAdapterFailure = errors.New("adapter request failed")

	// ErrDiscoveryExhausted is returned when a task hits its retry ceiling.
	// The task stays failed until manually re-queued.
	ErrDiscoveryExhausted = errors.New("discovery attempts exhausted")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when a profile is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrTaskNotFound is returned when no discovery task exists for a key.
	ErrTaskNotFound = errors.New("discovery task not found")
)
