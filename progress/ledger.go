// Package progress records which input files a task has already handled so
// that interrupted runs can resume where they stopped.
package progress

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Task names used by the CLI.
const (
	TaskCorrupt    = "corrupt"
	TaskSplitAudio = "split-audio"
)

// Status is the outcome recorded for one file.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Ledger is a SQLite-backed record of processed files, keyed by task and path.
type Ledger struct {
	db   *sql.DB
	path string
}

// Entry is one ledger row.
type Entry struct {
	Task      string
	Path      string
	Status    Status
	RunID     string
	UpdatedAt time.Time
}

// Open creates or connects to the ledger database at path.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ledger := &Ledger{db: db, path: path}
	if err := ledger.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// Path returns the database file location.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Mark records the outcome for path under task, replacing any earlier row.
func (l *Ledger) Mark(ctx context.Context, task, path string, status Status, runID string) error {
	if task == "" || path == "" {
		return errors.New("task and path are required")
	}
	return l.execWithRetry(ctx,
		`INSERT INTO processed (task, path, status, run_id, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (task, path) DO UPDATE SET
             status = excluded.status,
             run_id = excluded.run_id,
             updated_at = excluded.updated_at`,
		task,
		path,
		string(status),
		nullableString(runID),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// Done returns the set of paths already handled for task. Failed files count
// as handled and are not retried.
func (l *Ledger) Done(ctx context.Context, task string) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)
	rows, err := l.db.QueryContext(ctx,
		`SELECT path FROM processed WHERE task = ? AND status IN (?, ?)`,
		task, string(StatusDone), string(StatusFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan processed: %w", err)
		}
		done[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed: %w", err)
	}
	return done, nil
}

// Entries lists every row for task ordered by path.
func (l *Ledger) Entries(ctx context.Context, task string) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := l.db.QueryContext(ctx,
		`SELECT task, path, status, run_id, updated_at FROM processed WHERE task = ? ORDER BY path`,
		task,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			status  string
			runID   sql.NullString
			updated string
		)
		if err := rows.Scan(&e.Task, &e.Path, &status, &runID, &updated); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Status = Status(status)
		e.RunID = runID.String
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			e.UpdatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ImportLines ingests a plain progress file with one processed path per line
// and marks each path done under task. Blank lines and paths already in the
// ledger are skipped. It returns the number of rows added.
func (l *Ledger) ImportLines(ctx context.Context, task string, r io.Reader) (int, error) {
	ctx = ensureContext(ctx)
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO processed (task, path, status, run_id, updated_at)
         VALUES (?, ?, ?, NULL, ?)
         ON CONFLICT (task, path) DO NOTHING`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, task, line, string(StatusDone), now)
		if err != nil {
			return 0, fmt.Errorf("import %q: %w", line, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("import %q: %w", line, err)
		}
		count += int(n)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read progress lines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

// Reset removes every row for task.
func (l *Ledger) Reset(ctx context.Context, task string) error {
	return l.execWithRetry(ctx, `DELETE FROM processed WHERE task = ?`, task)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (l *Ledger) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := l.db.ExecContext(ctx, query, args...)
		return err
	})
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
