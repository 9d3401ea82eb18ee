// Package log provides slog loggers that mask credentials before they reach
// the output.
//
// The RedactingHandler wraps any slog.Handler and rewrites:
//   - attributes whose key names a credential (password, token, cookie, ...)
//   - values that look like bearer or basic authorization headers
//   - passwords embedded in URLs, e.g. a Redis address given as
//     redis://:secret@host:6379
//
// Verbose mode lowers the level to Debug but never disables masking.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("connecting", "redis", "redis://:hunter2@localhost:6379")
//	// redis=redis://:***REDACTED***@localhost:6379
//	slog.SetDefault(logger)
package log
