package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikicrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the session counters and parameters.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResults(&sb, report)
	if w.verbose {
		w.writeStats(&sb, report)
	}
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WIKICRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	seed := report.ResolvedSeed
	if seed == "" {
		seed = report.Seed
	}
	fmt.Fprintf(sb, "Subject:        %s\n", report.Subject)
	fmt.Fprintf(sb, "Seed:           %s\n", seed)
	fmt.Fprintf(sb, "Policy:         %s\n", report.Params.Policy())
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "RESULTS (%d)\n", len(report.Results))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if !report.HasResults() {
		sb.WriteString(report.Summary())
		sb.WriteString("\n\n")
		return
	}

	for i, r := range report.Results {
		fmt.Fprintf(sb, "%3d. %s\n", i+1, r.Title)
		fmt.Fprintf(sb, "     %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(sb, "     %s\n", truncate(r.Snippet, 160))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeStats(sb *strings.Builder, report *model.CrawlReport) {
	s := report.Stats
	p := report.Params
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSTATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Depths:         max %d, tolerant %d\n", p.MaxDepth, p.TolerantDepth)
	fmt.Fprintf(sb, "Budget:         %d results, %d concurrent fetches\n", p.MaxResults, p.Concurrency)
	fmt.Fprintf(sb, "Claimed:        %d\n", s.Claimed)
	fmt.Fprintf(sb, "Fetched:        %d\n", s.Fetched)
	fmt.Fprintf(sb, "Missed:         %d\n", s.Misses)
	fmt.Fprintf(sb, "Matched:        %d\n", s.Relevant)
	fmt.Fprintf(sb, "Dropped at cap: %d\n", s.Rejected)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if report.OutputFile != "" {
		fmt.Fprintf(sb, "Results exported to %s\n", report.OutputFile)
	}
	fmt.Fprintf(sb, "Session %s\n", report.ID)
}
