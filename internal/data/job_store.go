package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/callgrade/callgrade/internal/data/pgxutil"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// JobStore provides scoring-job persistence over PostgreSQL.
type JobStore struct {
	DB *sql.DB
}

// NewJobStore constructs a JobStore.
func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{DB: db}
}

const scoringJobColumns = `id, account_id, command, target, item_id, scorecard_id, score_id, dispatch_status, created_at, updated_at`

// GetScoringJob loads one scoring job by id.
func (s *JobStore) GetScoringJob(ctx context.Context, id string) (*model.ScoringJob, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}

	query := `SELECT ` + scoringJobColumns + ` FROM scoring_jobs WHERE id = $1`

	var job *model.ScoringJob
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		collected, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ScoringJob])
		if err != nil {
			return err
		}
		job = &collected
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scoring job %s: %w", id, model.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scoring job: %w", err)
	}
	return job, nil
}

// UpdateDispatchStatus advances a job's dispatch status. Updating a missing
// job is not an error; the dispatcher treats this write as best-effort.
func (s *JobStore) UpdateDispatchStatus(
	ctx context.Context,
	id string,
	status model.DispatchStatus,
) error {
	if s == nil || s.DB == nil {
		return ErrStoreNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return ErrIDRequired
	}
	if !status.Valid() {
		return &model.InvalidDispatchStatusError{Value: string(status)}
	}

	_, err := s.DB.ExecContext(ctx, `
		UPDATE scoring_jobs
		SET dispatch_status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update dispatch status: %w", err)
	}
	return nil
}

// Stats returns job counts per dispatch status.
func (s *JobStore) Stats(ctx context.Context) (*model.JobStats, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreNotConfigured
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT dispatch_status, COUNT(*)
		FROM scoring_jobs
		GROUP BY dispatch_status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &model.JobStats{}
	for rows.Next() {
		var status model.DispatchStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		switch status {
		case model.DispatchStatusPending:
			stats.Pending = count
		case model.DispatchStatusDispatched:
			stats.Dispatched = count
		case model.DispatchStatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job stats rows: %w", err)
	}
	return stats, nil
}
