package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// ResultStore appends results over PostgreSQL. Every invocation writes a new
// row; duplicate results for a redelivered job are expected and kept.
type ResultStore struct {
	DB *sql.DB
}

// NewResultStore constructs a ResultStore.
func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{DB: db}
}

// Create inserts one result row. A foreign-key violation on the item
// reference surfaces as model.ErrItemNotFound so the worker fails the
// message instead of retrying a write that can never succeed differently.
func (s *ResultStore) Create(ctx context.Context, result *model.Result) error {
	if s == nil || s.DB == nil {
		return ErrStoreNotConfigured
	}
	if result == nil || result.ID == "" {
		return ErrIDRequired
	}

	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("marshal result metadata: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO results (id, item_id, score_id, job_id, value, explanation, metadata, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		result.ID, result.ItemID, result.ScoreID, result.JobID,
		result.Value, result.Explanation, metadata, result.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("result references missing item %s: %w", result.ItemID, model.ErrItemNotFound)
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}
