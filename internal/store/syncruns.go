package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/albion-omni/internal/model"
)

const insertSyncRunSQL = `
	INSERT INTO sync_runs (id, job, region, started_at, finished_at, status, fetched, written, skipped, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
`

const recentSyncRunsSQL = `
	SELECT id::text, job, region, started_at, finished_at, status, fetched, written, skipped, COALESCE(error, '')
	FROM sync_runs
	ORDER BY started_at DESC
	LIMIT $1
`

// RecordSyncRun appends a run to the audit log.
func (s *Store) RecordSyncRun(ctx context.Context, run model.SyncRun) error {
	_, err := s.db.Exec(ctx, insertSyncRunSQL,
		run.ID, run.Job, string(run.Region), run.StartedAt, run.FinishedAt,
		run.Status, run.Fetched, run.Written, run.Skipped, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record sync run %s: %w", run.ID, err)
	}
	return nil
}

// RecentSyncRuns returns the newest runs across all jobs.
func (s *Store) RecentSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	rows, err := s.db.Query(ctx, recentSyncRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SyncRun, error) {
		var (
			r          model.SyncRun
			regionName string
		)
		err := row.Scan(
			&r.ID, &r.Job, &regionName, &r.StartedAt, &r.FinishedAt,
			&r.Status, &r.Fetched, &r.Written, &r.Skipped, &r.Error,
		)
		r.Region = model.Region(regionName)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sync runs: %w", err)
	}
	return runs, nil
}
