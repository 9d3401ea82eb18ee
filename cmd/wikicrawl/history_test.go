package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikicrawl/internal/database"
	"github.com/nao1215/wikicrawl/internal/model"
)

func newHistoryDB(t *testing.T) (*database.HistoryDB, []*model.CrawlReport) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	older := model.NewCrawlReport("https://wiki.test/wiki/Danube", "Danube")
	older.StartedAt = time.Now().Add(-time.Hour)
	older.Finish([]model.PageResult{
		model.NewPageResult("https://wiki.test/wiki/Romania", "Romania", "Romania borders the Danube."),
	}, model.Stats{Claimed: 2, Fetched: 2, Relevant: 1})

	newer := model.NewCrawlReport("https://wiki.test/wiki/Vienna", "Vienna")
	newer.Cancelled = true
	newer.Finish(nil, model.Stats{})

	for _, r := range []*model.CrawlReport{older, newer} {
		if err := db.SaveReport(t.Context(), r); err != nil {
			t.Fatal(err)
		}
	}
	return db, []*model.CrawlReport{older, newer}
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	for _, name := range []string{"subject", "url", "limit", "json", "markdown"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("expected at most one argument")
	}
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	t.Run("lists sessions newest first", func(t *testing.T) {
		t.Parallel()

		db, reports := newHistoryDB(t)
		var out bytes.Buffer
		if err := runHistory(t.Context(), db, "", historyOptions{limit: 10}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := out.String()
		if !strings.Contains(got, "Crawl sessions (2)") {
			t.Errorf("unexpected listing:\n%s", got)
		}
		newerAt := strings.Index(got, reports[1].ID)
		olderAt := strings.Index(got, reports[0].ID)
		if newerAt < 0 || olderAt < 0 || newerAt > olderAt {
			t.Errorf("expected newest session first:\n%s", got)
		}
		if !strings.Contains(got, "cancelled") {
			t.Error("expected cancelled status")
		}
	})

	t.Run("filters by subject", func(t *testing.T) {
		t.Parallel()

		db, reports := newHistoryDB(t)
		var out bytes.Buffer
		if err := runHistory(t.Context(), db, "", historyOptions{subject: "danube"}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), reports[0].ID) || strings.Contains(out.String(), reports[1].ID) {
			t.Errorf("unexpected listing:\n%s", out.String())
		}
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()

		db, _ := newHistoryDB(t)
		var out bytes.Buffer
		if err := runHistory(t.Context(), db, "", historyOptions{subject: "Nile"}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No crawl sessions found") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("sessions for a page", func(t *testing.T) {
		t.Parallel()

		db, reports := newHistoryDB(t)
		var out bytes.Buffer
		opts := historyOptions{pageURL: "https://wiki.test/wiki/Romania"}
		if err := runHistory(t.Context(), db, "", opts, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), reports[0].ID) {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("prints one session", func(t *testing.T) {
		t.Parallel()

		db, reports := newHistoryDB(t)

		var text bytes.Buffer
		if err := runHistory(t.Context(), db, reports[0].ID, historyOptions{}, &text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(text.String(), "RESULTS (1)") {
			t.Errorf("unexpected report:\n%s", text.String())
		}

		var js bytes.Buffer
		if err := runHistory(t.Context(), db, reports[0].ID, historyOptions{json: true}, &js); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(js.String(), `"id": "`+reports[0].ID+`"`) {
			t.Errorf("unexpected JSON:\n%s", js.String())
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		db, _ := newHistoryDB(t)
		err := runHistory(t.Context(), db, "missing", historyOptions{}, &bytes.Buffer{})
		if !errors.Is(err, database.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}
	})
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	if got := truncateText("Danube", 10); got != "Danube" {
		t.Errorf("got %q", got)
	}
	if got := truncateText("Bucureşti-Ilfov region", 10); got != "Bucureş..." {
		t.Errorf("got %q", got)
	}
}
