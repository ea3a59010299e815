package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// AccountStore resolves account keys over PostgreSQL.
type AccountStore struct {
	DB *sql.DB
}

// NewAccountStore constructs an AccountStore.
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{DB: db}
}

// GetIDByKey maps an account key to its internal id.
func (s *AccountStore) GetIDByKey(ctx context.Context, key string) (string, error) {
	if s == nil || s.DB == nil {
		return "", ErrStoreNotConfigured
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty account key: %w", model.ErrAccountNotFound)
	}

	var id string
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM accounts WHERE key = $1`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("account key %q: %w", key, model.ErrAccountNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get account by key: %w", err)
	}
	return id, nil
}
