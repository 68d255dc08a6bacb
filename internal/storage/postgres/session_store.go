// Package postgres provides the Postgres-backed session audit trail.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/convert-progress/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "session_runs"

// SessionStoreConfig controls the Postgres connection pool.
type SessionStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// SessionStore implements store.SessionRepository on Postgres.
type SessionStore struct {
	pool  pool
	table string
}

var _ store.SessionRepository = (*SessionStore)(nil)

// NewSessionStore connects a pool using cfg.
func NewSessionStore(ctx context.Context, cfg SessionStoreConfig) (*SessionStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	s, err := NewSessionStoreWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewSessionStoreWithPool wraps an existing pool; used by tests with pgxmock.
func NewSessionStoreWithPool(p pool, table string) (*SessionStore, error) {
	if p == nil {
		return nil, errors.New("postgres pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SessionStore{pool: p, table: table}, nil
}

// Close releases the pool.
func (s *SessionStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the session table when it does not exist.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			tracker_id    UUID PRIMARY KEY,
			session_id    TEXT NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			finished_at   TIMESTAMPTZ,
			status        TEXT NOT NULL,
			last_overall  INTEGER NOT NULL DEFAULT 0,
			snapshots     BIGINT NOT NULL DEFAULT 0,
			error_message TEXT
		);`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure session schema: %w", err)
	}
	return nil
}

// RecordStart inserts a running row; a duplicate start is ignored.
func (s *SessionStore) RecordStart(ctx context.Context, trackerID uuid.UUID, sessionID string, startedAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (tracker_id, session_id, started_at, updated_at, status, last_overall, snapshots)
		VALUES ($1, $2, $3, $3, $4, 0, 0)
		ON CONFLICT (tracker_id) DO NOTHING;`, s.table)
	if _, err := s.pool.Exec(ctx, query, trackerID, sessionID, startedAt, store.RunRunning); err != nil {
		return fmt.Errorf("record session start: %w", err)
	}
	return nil
}

// RecordSnapshots bumps the snapshot counter of a running session.
func (s *SessionStore) RecordSnapshots(
	ctx context.Context,
	trackerID uuid.UUID,
	delta int64,
	lastOverall int,
	at time.Time,
) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET snapshots = snapshots + $1, last_overall = $2, updated_at = $3
		WHERE tracker_id = $4 AND status = $5;`, s.table)
	if _, err := s.pool.Exec(ctx, query, delta, lastOverall, at, trackerID, store.RunRunning); err != nil {
		return fmt.Errorf("record session snapshots: %w", err)
	}
	return nil
}

// RecordOutcome marks the session finished.
func (s *SessionStore) RecordOutcome(
	ctx context.Context,
	trackerID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	lastOverall int,
	errMsg *string,
) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET finished_at = $1, updated_at = $1, status = $2, last_overall = $3, error_message = $4
		WHERE tracker_id = $5;`, s.table)
	tag, err := s.pool.Exec(ctx, query, finishedAt, status, lastOverall, errMsg, trackerID)
	if err != nil {
		return fmt.Errorf("record session outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetSession retrieves one run by tracker id.
func (s *SessionStore) GetSession(ctx context.Context, trackerID uuid.UUID) (store.SessionRun, error) {
	query := fmt.Sprintf(`
		SELECT tracker_id, session_id, started_at, updated_at, finished_at, status, last_overall, snapshots, error_message
		FROM %s
		WHERE tracker_id = $1;`, s.table)
	run, err := scanRun(s.pool.QueryRow(ctx, query, trackerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.SessionRun{}, store.ErrNotFound
		}
		return store.SessionRun{}, fmt.Errorf("get session: %w", err)
	}
	return run, nil
}

// ListSessions lists runs newest first; an empty sessionID lists all.
func (s *SessionStore) ListSessions(ctx context.Context, sessionID string, limit, offset int) ([]store.SessionRun, error) {
	query := fmt.Sprintf(`
		SELECT tracker_id, session_id, started_at, updated_at, finished_at, status, last_overall, snapshots, error_message
		FROM %s
		WHERE ($1 = '' OR session_id = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3;`, s.table)
	rows, err := s.pool.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var runs []store.SessionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (store.SessionRun, error) {
	var (
		run    store.SessionRun
		status string
	)
	err := row.Scan(
		&run.TrackerID,
		&run.SessionID,
		&run.StartedAt,
		&run.UpdatedAt,
		&run.FinishedAt,
		&status,
		&run.LastOverall,
		&run.Snapshots,
		&run.ErrorMessage,
	)
	if err != nil {
		return store.SessionRun{}, err
	}
	run.Status = store.RunStatus(status)
	return run, nil
}
