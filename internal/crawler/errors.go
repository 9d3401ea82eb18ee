package crawler

import "errors"

var (
	// ErrMiss wraps every fetch failure: network error, timeout or non-200
	// status. A miss ends the branch and is never returned by Crawl.
	ErrMiss = errors.New("page fetch missed")

	// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrEmptySubject is returned when the subject is empty or blank.
	ErrEmptySubject = errors.New("empty subject: a crawl needs a keyword to match")

	// ErrInvalidOrigin is returned when a link extractor is built without a
	// scheme and host to resolve links against.
	ErrInvalidOrigin = errors.New("invalid site origin: must have a scheme and host")
)
