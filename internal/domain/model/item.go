package model

import (
	"encoding/json"
	"time"
)

// Item is the unit of content being scored, e.g. a call transcript.
type Item struct {
	ID         string          `json:"id"                    db:"id"`
	ExternalID string          `json:"external_id,omitempty" db:"external_id"`
	AccountID  string          `json:"account_id"            db:"account_id"`
	Text       string          `json:"text"                  db:"text"`
	Metadata   json.RawMessage `json:"metadata,omitempty"    db:"metadata"`
	CreatedAt  time.Time       `json:"created_at"            db:"created_at"`
}
