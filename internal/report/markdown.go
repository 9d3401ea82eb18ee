package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/wikicrawl/internal/model"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStats(md, report)
	w.writeResults(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("wikicrawl report: " + report.Subject)
	md.PlainText("")

	seed := report.ResolvedSeed
	if seed == "" {
		seed = report.Seed
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Session", "`" + report.ID + "`"},
			{"Seed", seed},
			{"Subject", escapeCell(report.Subject)},
			{"Policy", "`" + report.Params.Policy() + "`"},
			{"Depth (max / tolerant)", strconv.Itoa(report.Params.MaxDepth) + " / " + strconv.Itoa(report.Params.TolerantDepth)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStats(md *markdown.Markdown, report *model.CrawlReport) {
	s := report.Stats
	md.H2("Crawl Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Pages"},
		Rows: [][]string{
			{"Claimed", strconv.Itoa(s.Claimed)},
			{"Fetched", strconv.Itoa(s.Fetched)},
			{"Matched", strconv.Itoa(s.Relevant)},
			{"Unmatched", strconv.Itoa(s.Unmatched())},
			{"Missed", strconv.Itoa(s.Misses)},
			{"Dropped at cap", strconv.Itoa(s.Rejected)},
		},
	})
	md.PlainText("")

	if s.Claimed > 0 {
		w.writePieChart(md, s)
	}
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Crawled Pages"),
		piechart.WithShowData(true),
	)

	if s.Relevant > 0 {
		chart.LabelAndIntValue("Matched", uint64(s.Relevant))
	}
	if n := s.Unmatched(); n > 0 {
		chart.LabelAndIntValue("Unmatched", uint64(n))
	}
	if s.Misses > 0 {
		chart.LabelAndIntValue("Missed", uint64(s.Misses))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Results")
	md.PlainText("")

	switch {
	case report.Cancelled:
		md.Warningf("The crawl was cancelled. %d result(s) were collected before it stopped.", len(report.Results))
	case report.ErrorMessage != "" || report.Error != nil:
		md.Cautionf("The crawl failed: %s", statusText(report))
	case !report.HasResults():
		md.Note(report.Summary())
	case report.Stats.Rejected > 0:
		md.Importantf("The result cap of %d was reached; %d further match(es) were dropped.",
			report.Params.MaxResults, report.Stats.Rejected)
	default:
		md.Tip(strings.ReplaceAll(report.Summary(), "\n", " "))
	}
	md.PlainText("")

	if !report.HasResults() {
		return
	}

	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		snippet := r.Snippet
		if snippet == "" {
			snippet = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"[" + escapeCell(r.Title) + "](" + r.URL + ")",
			escapeCell(truncate(snippet, 120)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Page", "Snippet"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wikicrawl](https://github.com/nao1215/wikicrawl)*")
}

// escapeCell keeps table cells from breaking the row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
