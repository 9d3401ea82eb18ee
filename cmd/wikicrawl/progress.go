package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/nao1215/wikicrawl/internal/crawler"
)

// progressIndicator shows a spinner with crawl counters while sessions run.
// A disabled indicator ignores every call.
type progressIndicator struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	fetched int
	matched int
}

// newProgressIndicator returns an indicator writing to w, or a disabled one.
func newProgressIndicator(w io.Writer, enabled bool) *progressIndicator {
	p := &progressIndicator{}
	if enabled {
		p.s = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
		p.s.Suffix = " crawling..."
	}
	return p
}

func (p *progressIndicator) Start() {
	if p.s != nil {
		p.s.Start()
	}
}

func (p *progressIndicator) Stop() {
	if p.s != nil {
		p.s.Stop()
	}
}

// Update is a crawler.ProgressFunc. It may be called by several sessions.
func (p *progressIndicator) Update(ev crawler.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetched++
	if ev.Relevant {
		p.matched++
	}
	if p.s == nil {
		return
	}

	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" fetched %d, matched %d (depth %d) %s",
		p.fetched, p.matched, ev.Depth, shortenURL(ev.URL, 60))
	p.s.Unlock()
}

// Counts returns the totals seen so far.
func (p *progressIndicator) Counts() (fetched, matched int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetched, p.matched
}

func shortenURL(u string, maxLen int) string {
	r := []rune(u)
	if len(r) <= maxLen {
		return u
	}
	return "..." + string(r[len(r)-maxLen+3:])
}
