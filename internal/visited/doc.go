// Package visited provides the claim set that deduplicates fetches within a
// crawl session.
//
// A Tracker answers one question atomically: "is this URL still unclaimed,
// and if so, is it mine now?". Every concurrent branch of a crawl calls
// TryClaim before fetching, so a URL reachable through several links in the
// same wave is fetched exactly once.
//
// Two implementations are provided:
//   - Memory: a mutex-guarded map, scoped to the process
//   - Redis: a Redis set keyed per session, for crawls whose claim set must be
//     shared with other processes
//
// URLs are canonicalized before they are stored (see Canonical).
package visited
