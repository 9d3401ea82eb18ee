// Package pipeline runs a crawl session as a sequence of steps.
//
// A session is a model.CrawlReport passed through:
//   - ResolveSeedStep: turn the seed (or subject) into an absolute URL
//   - CrawlStep: run the crawler and record results and counters
//   - ExportStep: write the JSON results file (finalizer)
//   - HistoryStep: archive the session in the history database (finalizer)
//
// Finalizers run after the regular steps even when one of them failed or
// the context was cancelled, so a Ctrl-C still leaves the partial results
// on disk. BatchProcessor runs one pipeline per seed under an errgroup limit.
package pipeline
