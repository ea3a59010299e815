package model

import "encoding/json"

// ScoreConfig is a single evaluable unit within a scorecard. A score can be
// addressed by internal id, key, external id, or display name.
type ScoreConfig struct {
	ID         string `json:"id"`
	Key        string `json:"key,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name"`

	// ResultPath is an optional JMESPath expression applied to the raw
	// executor output to derive the result value.
	ResultPath string `json:"result_path,omitempty"`

	// Parameters carries score-specific configuration passed opaquely to the
	// executor.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ScorecardSection groups an ordered list of scores under a section name.
type ScorecardSection struct {
	Name   string        `json:"name"`
	Scores []ScoreConfig `json:"scores"`
}

// Scorecard is a named collection of scores grouped into sections.
type Scorecard struct {
	ID         string             `json:"id"`
	AccountID  string             `json:"account_id"`
	Key        string             `json:"key,omitempty"`
	ExternalID string             `json:"external_id,omitempty"`
	Name       string             `json:"name"`
	Sections   []ScorecardSection `json:"sections"`
}

// FlattenScores returns every score in the scorecard as a single sequence,
// preserving section encounter order and score order within each section.
// Callers must not assume the order is stable across record-store reads; it
// reflects the structure as loaded.
func (sc *Scorecard) FlattenScores() []ScoreConfig {
	var out []ScoreConfig
	for _, section := range sc.Sections {
		out = append(out, section.Scores...)
	}
	return out
}

// Restrict returns a copy of the scorecard containing only the given scores,
// collapsed into a single section. The worker uses this to build a transient
// scoring instance limited to the target scores of one job.
func (sc *Scorecard) Restrict(scores []ScoreConfig) *Scorecard {
	restricted := *sc
	restricted.Sections = []ScorecardSection{{Name: "resolved", Scores: scores}}
	return &restricted
}
