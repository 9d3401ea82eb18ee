package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikicrawl/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "history.db"

// ErrReportNotFound is returned when no session matches the requested ID.
var ErrReportNotFound = errors.New("crawl report not found")

// HistoryDB stores finished crawl sessions.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		resolved_seed TEXT,
		subject TEXT NOT NULL,
		policy TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		result_count INTEGER NOT NULL DEFAULT 0,
		fetched INTEGER NOT NULL DEFAULT 0,
		misses INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		snippet TEXT,
		PRIMARY KEY (session_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_results_url ON results(url);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a finished session. Saving the same ID again replaces
// the earlier row and its results.
func (h *HistoryDB) SaveReport(ctx context.Context, report *model.CrawlReport) error {
	if report.Error != nil && report.ErrorMessage == "" {
		report.ErrorMessage = report.Error.Error()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE session_id = ?`, report.ID); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	query := `
	INSERT INTO sessions (id, seed, resolved_seed, subject, policy, started_at, finished_at,
		result_count, fetched, misses, cancelled, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		resolved_seed = excluded.resolved_seed,
		finished_at = excluded.finished_at,
		result_count = excluded.result_count,
		fetched = excluded.fetched,
		misses = excluded.misses,
		cancelled = excluded.cancelled,
		error = excluded.error,
		report_json = excluded.report_json
	`
	if _, err := tx.ExecContext(ctx, query,
		report.ID,
		report.Seed,
		report.ResolvedSeed,
		report.Subject,
		report.Params.Policy(),
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		len(report.Results),
		report.Stats.Fetched,
		report.Stats.Misses,
		report.Cancelled,
		report.ErrorMessage,
		string(reportJSON),
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (session_id, position, url, title, snippet) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range report.Results {
		if _, err := stmt.ExecContext(ctx, report.ID, i, r.URL, r.Title, r.Snippet); err != nil {
			return fmt.Errorf("failed to save result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// GetReport returns the stored report with the given ID.
func (h *HistoryDB) GetReport(ctx context.Context, id string) (*model.CrawlReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM sessions WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ReportMetadata summarizes a stored session without loading its report.
type ReportMetadata struct {
	ID           string
	Seed         string
	Subject      string
	Policy       string
	StartedAt    time.Time
	FinishedAt   time.Time
	ResultCount  int
	Fetched      int
	Misses       int
	Cancelled    bool
	ErrorMessage string
}

// ListReports returns session summaries, newest first. An empty subject
// lists every session; limit <= 0 means no limit.
func (h *HistoryDB) ListReports(ctx context.Context, subject string, limit int) ([]ReportMetadata, error) {
	query := `
	SELECT id, seed, subject, policy, started_at, finished_at, result_count, fetched, misses, cancelled, error
	FROM sessions
	WHERE (? = '' OR subject = ? COLLATE NOCASE)
	ORDER BY started_at DESC
	`
	args := []any{subject, subject}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportMetadata
	for rows.Next() {
		var (
			meta              ReportMetadata
			started, finished sql.NullString
			errMsg            sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.Seed, &meta.Subject, &meta.Policy, &started, &finished,
			&meta.ResultCount, &meta.Fetched, &meta.Misses, &meta.Cancelled, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan report metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(started.String)
		meta.FinishedAt = parseTimestamp(finished.String)
		meta.ErrorMessage = errMsg.String
		out = append(out, meta)
	}

	return out, rows.Err()
}

// SessionsForURL returns the IDs of sessions that collected pageURL,
// newest first.
func (h *HistoryDB) SessionsForURL(ctx context.Context, pageURL string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT s.id FROM results r JOIN sessions s ON s.id = r.session_id
	WHERE r.url = ?
	ORDER BY s.started_at DESC
	`, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp, returning zero time when empty
// or unparseable.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
