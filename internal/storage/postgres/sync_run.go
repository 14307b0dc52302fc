package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"corpus_syncer/internal/domain"
)

type SyncRunStore struct {
	db *sqlx.DB
}

func NewSyncRunStore(db *sqlx.DB) *SyncRunStore {
	return &SyncRunStore{db: db}
}

// Create writes the provenance row at run start, status running.
func (s *SyncRunStore) Create(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_runs (
			sync_id, sync_type, sync_source, status, triggered_by, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		run.SyncID,
		run.SyncType,
		run.Source,
		run.Status,
		run.TriggeredBy,
		run.StartedAt,
	)
	return err
}

// Finalize writes the terminal state of a run: counts, pid lists, error log,
// and the completion timestamp. Keyed by sync_id; a run is finalized once.
func (s *SyncRunStore) Finalize(ctx context.Context, run *domain.SyncRun) error {
	processed, err := json.Marshal(orEmpty(run.PIDsProcessed))
	if err != nil {
		return fmt.Errorf("marshal pids_processed: %w", err)
	}
	failed, err := json.Marshal(orEmpty(run.PIDsFailed))
	if err != nil {
		return fmt.Errorf("marshal pids_failed: %w", err)
	}

	query := `
		UPDATE sync_runs SET
			status = $1,
			completed_at = NOW(),
			records_new = $2,
			records_updated = $3,
			records_failed = $4,
			pids_processed = $5::jsonb,
			pids_failed = $6::jsonb,
			error_log = $7
		WHERE sync_id = $8 AND status = 'running'`

	result, err := s.db.ExecContext(ctx, query,
		run.Status,
		run.RecordsNew,
		run.RecordsUpdated,
		run.RecordsFailed,
		processed,
		failed,
		run.ErrorLog,
		run.SyncID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LastSuccessfulRun returns the most recent completed run for a source, or
// nil when the source has never completed a run. Used as the incremental
// fetch hint.
func (s *SyncRunStore) LastSuccessfulRun(ctx context.Context, source string) (*domain.SyncRun, error) {
	query := `
		SELECT id, sync_id, sync_type, sync_source, status, triggered_by,
		       started_at, completed_at, records_new, records_updated,
		       records_failed, error_log
		FROM sync_runs
		WHERE sync_source = $1 AND status = $2
		ORDER BY completed_at DESC
		LIMIT 1`

	var run domain.SyncRun
	err := s.db.GetContext(ctx, &run, query, source, domain.StatusCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetBySyncID loads one run with its pid lists, for audit queries.
func (s *SyncRunStore) GetBySyncID(ctx context.Context, syncID string) (*domain.SyncRun, error) {
	query := `
		SELECT id, sync_id, sync_type, sync_source, status, triggered_by,
		       started_at, completed_at, records_new, records_updated,
		       records_failed, pids_processed, pids_failed, error_log
		FROM sync_runs
		WHERE sync_id = $1`

	row := s.db.QueryRowxContext(ctx, query, syncID)

	var run domain.SyncRun
	var processed, failed []byte
	err := row.Scan(
		&run.ID,
		&run.SyncID,
		&run.SyncType,
		&run.Source,
		&run.Status,
		&run.TriggeredBy,
		&run.StartedAt,
		&run.CompletedAt,
		&run.RecordsNew,
		&run.RecordsUpdated,
		&run.RecordsFailed,
		&processed,
		&failed,
		&run.ErrorLog,
	)
	if err != nil {
		return nil, err
	}

	if len(processed) > 0 {
		if err := json.Unmarshal(processed, &run.PIDsProcessed); err != nil {
			return nil, fmt.Errorf("unmarshal pids_processed: %w", err)
		}
	}
	if len(failed) > 0 {
		if err := json.Unmarshal(failed, &run.PIDsFailed); err != nil {
			return nil, fmt.Errorf("unmarshal pids_failed: %w", err)
		}
	}

	return &run, nil
}

func orEmpty(pids []string) []string {
	if pids == nil {
		return []string{}
	}
	return pids
}
