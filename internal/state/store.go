package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docsort/constants"
	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/entity"
)

const (
	tableFileState = "file_state"
	tableRuns      = "runs"
)

var fileStateColumns = []string{"path", "content_hash", "readable", "classification", "completed", "run_id", "updated_at"}

// Entry is the latest known state of one input file.
type Entry struct {
	Path           string
	ContentHash    string
	Readable       bool
	Classification constants.DocumentType
	Completed      bool
	RunID          string
	UpdatedAt      time.Time
}

// Run is one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Processed  int
	Skipped    int
}

// Store is the run-state ledger: latest outcome per path plus a row per run.
// CSV outputs keep full history; the ledger is what makes resumption possible.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	builder *entsql.DialectBuilder
	logger  *slog.Logger
}

var ledgerDDL = []string{
	`CREATE TABLE IF NOT EXISTS file_state (
	path varchar(2048) NOT NULL PRIMARY KEY,
	content_hash varchar(64) NOT NULL,
	readable boolean NOT NULL,
	classification varchar(16) NOT NULL,
	completed boolean NOT NULL,
	run_id varchar(64) NOT NULL,
	updated_at varchar(40) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS runs (
	id varchar(64) NOT NULL PRIMARY KEY,
	started_at varchar(40) NOT NULL,
	finished_at varchar(40),
	processed integer NOT NULL DEFAULT 0,
	skipped integer NOT NULL DEFAULT 0
)`,
}

// Migrate creates the ledger tables if they do not exist. The DDL is plain
// SQL accepted by both SQLite and Postgres; queries go through the builder.
func (s *Store) Migrate(ctx context.Context) error {
	for _, query := range ledgerDDL {
		if err := s.drv.Exec(ctx, query, []any{}, nil); err != nil {
			return fmt.Errorf("migrate state ledger: %w", err)
		}
	}
	return nil
}

// Lookup returns the ledger entry for path, or common.ErrNotFound.
func (s *Store) Lookup(ctx context.Context, path string) (Entry, error) {
	b := s.builder
	query, args := b.Select(fileStateColumns...).
		From(b.Table(tableFileState)).
		Where(entsql.EQ("path", path)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return Entry{}, fmt.Errorf("lookup %s: %w", path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Entry{}, fmt.Errorf("lookup %s: %w", path, err)
		}
		return Entry{}, common.ErrNotFound
	}
	var (
		e         Entry
		class     string
		updatedAt string
	)
	if err := rows.Scan(&e.Path, &e.ContentHash, &e.Readable, &class, &e.Completed, &e.RunID, &updatedAt); err != nil {
		return Entry{}, fmt.Errorf("scan %s: %w", path, err)
	}
	e.Classification = constants.DocumentType(class)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

// Seen reports whether path was already handled with the same content hash.
func (s *Store) Seen(ctx context.Context, path, contentHash string) (bool, error) {
	e, err := s.Lookup(ctx, path)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.ContentHash == contentHash, nil
}

// Record stores the outcome for a file; the latest write wins.
func (s *Store) Record(ctx context.Context, o entity.FileOutcome, contentHash, runID string, at time.Time) error {
	class := o.Classification
	if class == "" {
		class = constants.Unknown
	}
	query, args := s.builder.Insert(tableFileState).
		Columns(fileStateColumns...).
		Values(o.FilePath, contentHash, o.Readable, string(class), o.Completed, runID, formatTime(at)).
		OnConflict(
			entsql.ConflictColumns("path"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("record %s: %w", o.FilePath, err)
	}
	return nil
}

// StartRun inserts a run row.
func (s *Store) StartRun(ctx context.Context, id string, at time.Time) error {
	query, args := s.builder.Insert(tableRuns).
		Columns("id", "started_at", "processed", "skipped").
		Values(id, formatTime(at), 0, 0).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("start run %s: %w", id, err)
	}
	s.logger.Debug("state.run.started", "run_id", id)
	return nil
}

// FinishRun closes a run row with its counts.
func (s *Store) FinishRun(ctx context.Context, id string, at time.Time, processed, skipped int) error {
	query, args := s.builder.Update(tableRuns).
		Set("finished_at", formatTime(at)).
		Set("processed", processed).
		Set("skipped", skipped).
		Where(entsql.EQ("id", id)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetRun loads a run row.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	b := s.builder
	query, args := b.Select("id", "started_at", "finished_at", "processed", "skipped").
		From(b.Table(tableRuns)).
		Where(entsql.EQ("id", id)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Run{}, err
		}
		return Run{}, common.ErrNotFound
	}
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	if err := rows.Scan(&r.ID, &started, &finished, &r.Processed, &r.Skipped); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", id, err)
	}
	r.StartedAt = parseTime(started)
	if finished.Valid {
		t := parseTime(finished.String)
		r.FinishedAt = &t
	}
	return r, nil
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() string { return s.drv.Dialect() }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
