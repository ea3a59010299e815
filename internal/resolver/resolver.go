package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// Options configure a Resolver.
type Options struct {
	Items      core.ItemStore
	Scorecards core.ScorecardStore
	Accounts   core.AccountStore
	Logger     *slog.Logger
}

// Resolver resolves account, scorecard, score and item references for one
// job. It holds only read-only client handles and is safe to share across
// concurrently processed messages.
type Resolver struct {
	items      core.ItemStore
	scorecards core.ScorecardStore
	accounts   core.AccountStore
	logger     *slog.Logger
}

// New constructs a Resolver.
func New(opts Options) (*Resolver, error) {
	if opts.Items == nil || opts.Scorecards == nil {
		return nil, errors.New("item and scorecard stores are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		items:      opts.Items,
		scorecards: opts.Scorecards,
		accounts:   opts.Accounts,
		logger:     logger,
	}, nil
}

// ResolveAccountID maps an account key to its internal id. Jobs that already
// carry an account id bypass this.
func (r *Resolver) ResolveAccountID(ctx context.Context, key string) (string, error) {
	if r.accounts == nil {
		return "", fmt.Errorf("resolve account %q: %w", key, model.ErrAccountNotFound)
	}
	id, err := r.accounts.GetIDByKey(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve account %q: %w", key, err)
	}
	return id, nil
}

// ResolveScorecard loads a scorecard by id, key, external id or name.
func (r *Resolver) ResolveScorecard(
	ctx context.Context,
	accountID, identifier string,
) (*model.Scorecard, error) {
	scorecard, err := r.scorecards.GetScorecard(ctx, accountID, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve scorecard %q: %w", identifier, err)
	}
	return scorecard, nil
}

// ResolveScores selects the requested scores from the scorecard, falling back
// to the full score list when nothing resolves.
func (r *Resolver) ResolveScores(
	ctx context.Context,
	scorecard *model.Scorecard,
	requested string,
) []model.ScoreConfig {
	return ResolveScores(ctx, r.logger, scorecard, requested)
}

// ResolveItem loads an item by internal id first, then by external id within
// the account. Unlike score resolution there is no fallback: a miss is
// model.ErrItemNotFound.
func (r *Resolver) ResolveItem(
	ctx context.Context,
	accountID, identifier string,
) (*model.Item, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, fmt.Errorf("resolve item: empty identifier: %w", model.ErrItemNotFound)
	}

	item, err := r.items.GetByID(ctx, identifier)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, model.ErrItemNotFound) {
		return nil, fmt.Errorf("resolve item %q by id: %w", identifier, err)
	}

	item, err = r.items.GetByExternalID(ctx, accountID, identifier)
	if err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			return nil, fmt.Errorf("resolve item %q: %w", identifier, model.ErrItemNotFound)
		}
		return nil, fmt.Errorf("resolve item %q by external id: %w", identifier, err)
	}
	return item, nil
}
