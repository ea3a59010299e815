package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// ScorecardStore loads scorecard structures over PostgreSQL. Sections and
// scores are stored as a JSONB document so the structural order producers
// wrote is the order resolution sees.
type ScorecardStore struct {
	DB *sql.DB
}

// NewScorecardStore constructs a ScorecardStore.
func NewScorecardStore(db *sql.DB) *ScorecardStore {
	return &ScorecardStore{DB: db}
}

// scorecardLookups orders the identifier columns by resolution precedence.
var scorecardLookups = []string{"id", "key", "external_id", "name"}

// GetScorecard resolves a scorecard by id, key, external id, or name, in that
// order, scoped to the account.
func (s *ScorecardStore) GetScorecard(
	ctx context.Context,
	accountID, identifier string,
) (*model.Scorecard, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreNotConfigured
	}
	if strings.TrimSpace(identifier) == "" {
		return nil, fmt.Errorf("empty scorecard identifier: %w", model.ErrScorecardNotFound)
	}

	for _, column := range scorecardLookups {
		scorecard, err := s.getByColumn(ctx, column, accountID, identifier)
		if err == nil {
			return scorecard, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get scorecard by %s: %w", column, err)
		}
	}
	return nil, fmt.Errorf("scorecard %q: %w", identifier, model.ErrScorecardNotFound)
}

func (s *ScorecardStore) getByColumn(
	ctx context.Context,
	column, accountID, identifier string,
) (*model.Scorecard, error) {
	// column comes from the fixed scorecardLookups list, never from input.
	query := fmt.Sprintf(`
		SELECT id, account_id, key, external_id, name, sections
		FROM scorecards
		WHERE account_id = $1 AND %s = $2`, column)

	var sc model.Scorecard
	var sectionsRaw []byte
	row := s.DB.QueryRowContext(ctx, query, accountID, identifier)
	if err := row.Scan(&sc.ID, &sc.AccountID, &sc.Key, &sc.ExternalID, &sc.Name, &sectionsRaw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sectionsRaw, &sc.Sections); err != nil {
		return nil, fmt.Errorf("decode scorecard sections: %w", err)
	}
	return &sc, nil
}
