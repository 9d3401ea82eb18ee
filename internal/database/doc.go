// Package database provides the SQLite history archive of finished crawl
// sessions.
//
// Every session is stored as one row in sessions (the summary columns plus
// the full report as JSON) and one row per collected page in results. The
// archive is written after a crawl finishes and read by the history
// command; the crawler itself never consults it.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite, so the archive is a
// single file in the XDG data directory.
package database
