package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoSeed is returned when neither a seed nor a subject to derive one
	// from is given.
	ErrNoSeed = errors.New("no seed specified: provide a seed URL, an article name or --subject")

	// ErrNoSubject is returned when the subject is empty.
	ErrNoSubject = errors.New("no subject specified: use --subject")

	// ErrInvalidDepth is returned when a depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: --max-depth and --tolerant-depth must be non-negative")

	// ErrInvalidMaxResults is returned when the result cap is below 1.
	ErrInvalidMaxResults = errors.New("invalid max results: must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency cap is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable pacing.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRedisDB is returned when the Redis database index is negative
	// or not a number.
	ErrInvalidRedisDB = errors.New("invalid redis database: must be a non-negative integer")
)
