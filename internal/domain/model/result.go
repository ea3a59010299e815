package model

import (
	"encoding/json"
	"time"
)

// ValueError is the value recorded for a result whose computation reported an
// error. Error-kind results are persisted as data, not surfaced as pipeline
// failures.
const ValueError = "ERROR"

// Cost captures the expense of a single score computation.
type Cost struct {
	TotalCost        float64 `json:"total_cost"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	Calls            int     `json:"calls,omitempty"`
}

// ResultMetadata is the metadata block attached to every result. Cost is
// always present, possibly zero-valued.
type ResultMetadata struct {
	Cost  Cost            `json:"cost"`
	Trace json.RawMessage `json:"trace,omitempty"`
}

// Result is the persisted outcome of executing one score against one item.
// Results are append-only; redelivered jobs produce additional rows rather
// than overwriting earlier ones.
type Result struct {
	ID          string         `json:"id"                    db:"id"`
	ItemID      string         `json:"item_id"               db:"item_id"`
	ScoreID     string         `json:"score_id"              db:"score_id"`
	JobID       string         `json:"job_id,omitempty"      db:"job_id"`
	Value       string         `json:"value"                 db:"value"`
	Explanation string         `json:"explanation,omitempty" db:"explanation"`
	Metadata    ResultMetadata `json:"metadata"              db:"metadata"`
	CreatedAt   time.Time      `json:"created_at"            db:"created_at"`
}

// IsError reports whether the result records an error-kind value.
func (r *Result) IsError() bool {
	return r.Value == ValueError
}

// ResultSummary is the compact form forwarded to the response queue for
// live-update consumers.
type ResultSummary struct {
	ItemID  string `json:"item_id"`
	ScoreID string `json:"score_id"`
	Value   string `json:"value"`
	Cost    Cost   `json:"cost"`
}
