package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wikicrawl/internal/config"
	"github.com/nao1215/wikicrawl/internal/database"
	"github.com/nao1215/wikicrawl/internal/report"
)

// defaultHistoryLimit is the number of sessions listed by default.
const defaultHistoryLimit = 20

// historyOptions are the flags of the history command.
type historyOptions struct {
	subject  string
	pageURL  string
	limit    int
	json     bool
	markdown bool
	verbose  bool
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show archived crawl sessions",
		Long: `History lists the crawl sessions archived in the history database,
newest first, or prints the full report of one session.

Examples:
  # List recent sessions
  wikicrawl history

  # List sessions for a subject
  wikicrawl history --subject Danube

  # Show sessions that collected a page
  wikicrawl history --url https://en.wikipedia.org/wiki/Romania

  # Print one session as JSON
  wikicrawl history --json 6f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("subject", "", "Only list sessions for this subject (case-insensitive)")
	cmd.Flags().String("url", "", "Only list sessions that collected this page URL")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of sessions to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Print the session report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Print the session report as Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var (
		opts historyOptions
		err  error
	)
	if opts.subject, err = cmd.Flags().GetString("subject"); err != nil {
		return err
	}
	if opts.pageURL, err = cmd.Flags().GetString("url"); err != nil {
		return err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	opts.verbose = getVerboseFlag(cmd)

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	return runHistory(cmd.Context(), db, id, opts, cmd.OutOrStdout())
}

// runHistory prints one session report, or lists sessions when id is empty.
func runHistory(ctx context.Context, db *database.HistoryDB, id string, opts historyOptions, out io.Writer) error {
	if id != "" {
		r, err := db.GetReport(ctx, id)
		if err != nil {
			return err
		}
		var w report.Writer
		switch {
		case opts.json:
			w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
		case opts.markdown:
			w = report.NewMarkdownWriter(out)
		default:
			w = report.NewSimpleWriter(out, report.WithVerbose(opts.verbose))
		}
		_, err = w.Write(r)
		return err
	}

	if opts.pageURL != "" {
		ids, err := db.SessionsForURL(ctx, opts.pageURL)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintf(out, "No session collected %s\n", opts.pageURL)
			return nil
		}
		fmt.Fprintf(out, "Sessions that collected %s (%d):\n\n", opts.pageURL, len(ids))
		for _, sid := range ids {
			fmt.Fprintf(out, "  %s\n", sid)
		}
		return nil
	}

	sessions, err := db.ListReports(ctx, opts.subject, opts.limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No crawl sessions found")
		return nil
	}

	fmt.Fprintf(out, "Crawl sessions (%d):\n\n", len(sessions))
	fmt.Fprintf(out, "  %-36s  %-19s  %-20s  %7s  %7s  %s\n",
		"ID", "Started", "Subject", "Results", "Fetched", "Status")
	for _, s := range sessions {
		fmt.Fprintf(out, "  %-36s  %-19s  %-20s  %7d  %7d  %s\n",
			s.ID,
			s.StartedAt.Local().Format(time.DateTime),
			truncateText(s.Subject, 20),
			s.ResultCount,
			s.Fetched,
			sessionStatus(s),
		)
	}
	return nil
}

func sessionStatus(s database.ReportMetadata) string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case s.ErrorMessage != "":
		return "error: " + truncateText(s.ErrorMessage, 40)
	default:
		return "ok"
	}
}

func truncateText(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
