package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"

	"github.com/V4T54L/restnav/internal/domain"
)

const entriesTableName = "restnav_log_entries"

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS restnav_log_entries (
	entry_id       TEXT PRIMARY KEY,
	url            TEXT NOT NULL DEFAULT '',
	method         TEXT NOT NULL DEFAULT '',
	subtype        TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL,
	fault          TEXT NOT NULL DEFAULT '',
	request        TEXT NOT NULL DEFAULT '',
	response_bytes INTEGER NOT NULL DEFAULT 0,
	cache_hits     INTEGER NOT NULL DEFAULT 0,
	aggregators    TEXT[] NOT NULL DEFAULT '{}',
	redacted       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT NOT NULL DEFAULT 0
);`

// ArchiveRepository writes entry snapshots to PostgreSQL.
type ArchiveRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewArchiveRepository creates a new PostgreSQL archive repository.
func NewArchiveRepository(db *sql.DB, logger *slog.Logger) *ArchiveRepository {
	return &ArchiveRepository{db: db, logger: logger.With("component", "postgres_archive")}
}

// EnsureSchema creates the entries table if it does not exist.
func (r *ArchiveRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createEntriesTable)
	return err
}

// WriteBatch writes a batch of snapshots using the COPY protocol. Rows are
// staged in a temporary table and upserted on entry_id, so a replayed batch
// overwrites older snapshots of the same entry.
func (r *ArchiveRepository) WriteBatch(ctx context.Context, entries []domain.EntrySnapshot) error {
	if len(entries) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "restnav_entries_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE `+entriesTableName+` INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return err
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(tempTableName,
		"entry_id", "url", "method", "subtype", "title", "state", "fault", "request",
		"response_bytes", "cache_hits", "aggregators", "redacted", "created_at", "updated_at", "duration_ms"))
	if err != nil {
		return err
	}

	for _, e := range dedupe(entries) {
		aggregators := e.Aggregators
		if aggregators == nil {
			aggregators = []string{}
		}
		_, err = stmt.ExecContext(ctx, e.ID, e.URL, e.Method, e.SubType, e.Title, e.State, e.Fault, e.Request,
			e.ResponseBytes, e.CacheHits, pq.Array(aggregators), e.Redacted, e.CreatedAt, e.UpdatedAt, e.DurationMs)
		if err != nil {
			// Close the statement to avoid connection issues
			_ = stmt.Close()
			return err
		}
	}

	if err := stmt.Close(); err != nil {
		return err
	}

	upsertQuery := `
		INSERT INTO ` + entriesTableName + ` (entry_id, url, method, subtype, title, state, fault, request,
			response_bytes, cache_hits, aggregators, redacted, created_at, updated_at, duration_ms)
		SELECT entry_id, url, method, subtype, title, state, fault, request,
			response_bytes, cache_hits, aggregators, redacted, created_at, updated_at, duration_ms
		FROM ` + tempTableName + `
		ON CONFLICT (entry_id) DO UPDATE SET
			state = EXCLUDED.state,
			fault = EXCLUDED.fault,
			request = EXCLUDED.request,
			response_bytes = EXCLUDED.response_bytes,
			cache_hits = EXCLUDED.cache_hits,
			aggregators = EXCLUDED.aggregators,
			redacted = EXCLUDED.redacted,
			updated_at = EXCLUDED.updated_at,
			duration_ms = EXCLUDED.duration_ms
		WHERE ` + entriesTableName + `.updated_at <= EXCLUDED.updated_at;
	`
	if _, err = txn.ExecContext(ctx, upsertQuery); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		return err
	}
	r.logger.Debug("archived batch", "count", len(entries))
	return nil
}

// dedupe keeps the last snapshot per entry id, since one upsert statement
// cannot touch the same row twice.
func dedupe(entries []domain.EntrySnapshot) []domain.EntrySnapshot {
	index := make(map[string]int, len(entries))
	out := make([]domain.EntrySnapshot, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

var _ domain.ArchiveRepository = (*ArchiveRepository)(nil)
