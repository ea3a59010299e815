// Package resolver turns the loosely specified identifiers carried by a
// scoring job into concrete record-store entities.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// scoreMatcher is one typed match strategy. Strategies are tried in slice
// order so matching precedence stays explicit and independently testable.
type scoreMatcher struct {
	field string
	match func(score model.ScoreConfig, identifier string) bool
}

var scoreMatchers = []scoreMatcher{
	{field: "id", match: func(s model.ScoreConfig, id string) bool { return s.ID != "" && s.ID == id }},
	{field: "key", match: func(s model.ScoreConfig, id string) bool { return s.Key != "" && s.Key == id }},
	{field: "external_id", match: func(s model.ScoreConfig, id string) bool { return s.ExternalID != "" && s.ExternalID == id }},
	{field: "name", match: func(s model.ScoreConfig, id string) bool { return s.Name != "" && s.Name == id }},
}

// findScore returns the first score matching the identifier under the
// id → key → external_id → name precedence. Within one strategy the scan is
// in structural (section, then score) order; across strategies the earlier
// strategy wins even when a later one would match an earlier score.
func findScore(scores []model.ScoreConfig, identifier string) (int, bool) {
	for _, matcher := range scoreMatchers {
		for i, score := range scores {
			if matcher.match(score, identifier) {
				return i, true
			}
		}
	}
	return 0, false
}

// ResolveScores selects the scores a job requests from a scorecard.
//
// The requested value is a comma-separated list of score identifiers. An
// empty request returns every score. Identifiers that resolve contribute to
// the returned subset; unresolved ones are logged and dropped. When nothing
// resolves the full score list is returned rather than an error — the
// pipeline degrades to "evaluate everything" instead of failing the job.
func ResolveScores(
	ctx context.Context,
	logger *slog.Logger,
	scorecard *model.Scorecard,
	requested string,
) []model.ScoreConfig {
	all := scorecard.FlattenScores()

	identifiers := splitIdentifiers(requested)
	if len(identifiers) == 0 {
		return all
	}

	seen := make(map[int]struct{}, len(identifiers))
	var resolved []model.ScoreConfig
	for _, identifier := range identifiers {
		idx, ok := findScore(all, identifier)
		if !ok {
			logger.WarnContext(ctx, "score identifier did not resolve",
				"scorecard_id", scorecard.ID, "identifier", identifier)
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		resolved = append(resolved, all[idx])
	}

	if len(resolved) == 0 {
		logger.WarnContext(ctx, "no requested scores resolved, falling back to all scores",
			"scorecard_id", scorecard.ID, "requested", requested, "score_count", len(all))
		return all
	}
	return resolved
}

func splitIdentifiers(requested string) []string {
	var out []string
	for _, part := range strings.Split(requested, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
