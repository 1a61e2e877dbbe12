package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/giantswarm/nbenv/internal/sentinel"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// ErrEmptyPath is returned when Open is called with an empty database path.
const ErrEmptyPath = sentinel.Error("journal path must not be empty")

// ErrEmptyStepName is returned when a step is recorded without a name.
const ErrEmptyStepName = sentinel.Error("step name must not be empty")

// ErrStepNotFound is returned by StepFinished when no open step row exists
// for the given id.
const ErrStepNotFound = sentinel.Error("step not found")

// Outcome is the recorded result of a finished step.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Step is one recorded bootstrap step.
type Step struct {
	ID         int64
	Run        string
	Name       string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	// Detail carries the error text for failed steps, empty otherwise.
	Detail string
}

// Finished reports whether the step has a recorded outcome.
func (s Step) Finished() bool {
	return s.Outcome != ""
}

// Journal is an append-only log of bootstrap steps backed by SQLite.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run TEXT NOT NULL,
	name TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	outcome TEXT,
	detail TEXT
);
CREATE INDEX IF NOT EXISTS steps_run_idx ON steps(run);
`

// Open opens (creating if necessary) the journal database at path.
//
// WAL mode with a generous busy timeout handles the status CLI reading
// while the detached worker writes. NORMAL synchronous mode is acceptable:
// a lost journal row after a crash costs a line of history, nothing more.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	// Single connection; the journal sees one writer and an occasional reader.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

// StepStarted records the start of a step within a run and returns the row
// id to pass to StepFinished. The run groups the steps of one bootstrap
// attempt, typically the spec hash.
func (j *Journal) StepStarted(ctx context.Context, run, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyStepName
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO steps (run, name, started_at) VALUES (?, ?, ?)`,
		run, name, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("record step start %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("step row id for %q: %w", name, err)
	}
	return id, nil
}

// StepFinished records the outcome of a previously started step. A non-nil
// stepErr marks the step failed and stores the error text as detail.
func (j *Journal) StepFinished(ctx context.Context, id int64, stepErr error) error {
	outcome := OutcomeSucceeded
	detail := ""
	if stepErr != nil {
		outcome = OutcomeFailed
		detail = stepErr.Error()
	}

	res, err := j.db.ExecContext(ctx,
		`UPDATE steps SET finished_at = ?, outcome = ?, detail = ? WHERE id = ? AND outcome IS NULL`,
		time.Now().UnixMilli(), string(outcome), detail, id,
	)
	if err != nil {
		return fmt.Errorf("record step finish %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("step finish rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrStepNotFound, id)
	}
	return nil
}

// Steps returns all recorded steps for a run in start order. An empty run
// returns the steps of every run.
func (j *Journal) Steps(ctx context.Context, run string) ([]Step, error) {
	const base = `SELECT id, run, name, started_at, finished_at, outcome, detail FROM steps`
	var (
		rows *sql.Rows
		err  error
	)
	if run == "" {
		rows, err = j.db.QueryContext(ctx, base+` ORDER BY id`)
	} else {
		rows, err = j.db.QueryContext(ctx, base+` WHERE run = ? ORDER BY id`, run)
	}
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err() below catches read errors; Close error is redundant

	var steps []Step
	for rows.Next() {
		var (
			s          Step
			startedMs  int64
			finishedMs sql.NullInt64
			outcome    sql.NullString
			detail     sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Run, &s.Name, &startedMs, &finishedMs, &outcome, &detail); err != nil {
			return nil, fmt.Errorf("scan step row: %w", err)
		}
		s.StartedAt = time.UnixMilli(startedMs).UTC()
		if finishedMs.Valid {
			s.FinishedAt = time.UnixMilli(finishedMs.Int64).UTC()
		}
		s.Outcome = Outcome(outcome.String)
		s.Detail = detail.String
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step rows: %w", err)
	}

	return steps, nil
}
