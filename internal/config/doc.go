// Package config provides configuration structures and utilities for
// wikicrawl. It defines the crawl budgets and policies, fetch settings,
// report preferences, per-site path conventions loaded from the .wikicrawl
// file, and the Redis settings read from the environment.
package config
