package sqlite

import (
	"context"
	"fmt"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SyncRunStore = (*SyncRunRepo)(nil)

// SyncRunRepo is the SQLite implementation of the SyncRunStore port interface.
type SyncRunRepo struct {
	db *DB
}

// NewSyncRunRepo creates a new SyncRunRepo backed by the given DB.
func NewSyncRunRepo(db *DB) *SyncRunRepo {
	return &SyncRunRepo{db: db}
}

// Record inserts a finished run. Recording the same sync id twice is a no-op.
func (r *SyncRunRepo) Record(ctx context.Context, run model.SyncRun) error {
	const query = `INSERT OR IGNORE INTO sync_runs
		(sync_id, base_id, state, error_kind, message, table_count, record_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		run.SyncID,
		run.BaseID,
		string(run.State),
		string(run.ErrorKind),
		run.Message,
		run.TableCount,
		run.RecordCount,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record sync run %s: %w", run.SyncID, err)
	}
	return nil
}

// ListRecent returns up to limit runs ordered by finished_at DESC.
func (r *SyncRunRepo) ListRecent(ctx context.Context, baseID string, limit int) ([]model.SyncRun, error) {
	const query = `SELECT sync_id, base_id, state, error_kind, message, table_count, record_count, started_at, finished_at
		FROM sync_runs
		WHERE (? = '' OR base_id = ?)
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, baseID, baseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []model.SyncRun{}
	for rows.Next() {
		var (
			run                   model.SyncRun
			state, kind           string
			startedAt, finishedAt string
		)
		if err := rows.Scan(&run.SyncID, &run.BaseID, &state, &kind, &run.Message,
			&run.TableCount, &run.RecordCount, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		run.State = model.SyncState(state)
		run.ErrorKind = model.ErrorKind(kind)

		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at for sync run %s: %w", run.SyncID, err)
		}
		if run.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at for sync run %s: %w", run.SyncID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}
	return runs, nil
}
