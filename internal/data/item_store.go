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

// ItemStore provides item lookups over PostgreSQL.
type ItemStore struct {
	DB *sql.DB
}

// NewItemStore constructs an ItemStore.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{DB: db}
}

const itemColumns = `id, external_id, account_id, text, metadata, created_at`

// GetByID loads one item by internal id.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	return s.queryOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetByExternalID loads one item by external id within an account.
func (s *ItemStore) GetByExternalID(ctx context.Context, accountID, externalID string) (*model.Item, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreNotConfigured
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, ErrIDRequired
	}
	return s.queryOne(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE account_id = $1 AND external_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, accountID, externalID)
}

func (s *ItemStore) queryOne(ctx context.Context, query string, args ...any) (*model.Item, error) {
	var item *model.Item
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		collected, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Item])
		if err != nil {
			return err
		}
		item = &collected
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}
