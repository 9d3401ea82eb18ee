// Package main provides the entry point for the wikicrawl CLI.
//
// wikicrawl crawls a wiki from a seed article and collects the pages whose
// text mentions a subject.
//
// Usage:
//
//	wikicrawl crawl --subject <subject> [seed-url...]
//	wikicrawl history [session-id]
//
// See --help for all available options.
package main

// main is the entry point for wikicrawl.
func main() {
	Execute()
}
