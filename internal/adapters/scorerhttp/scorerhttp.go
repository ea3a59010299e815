// Package scorerhttp adapts an external HTTP scoring service to the
// ScoreExecutor port. The scoring computation itself lives behind that
// service; this adapter only moves the item and score configuration across
// the wire and shapes the reply.
package scorerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

const maxResponseBodyBytes = 64 * 1024

// Options configure an Executor.
type Options struct {
	// URL is the scoring endpoint; requests are POSTed to it as JSON.
	URL        string
	HTTPClient *http.Client
}

// Executor invokes the scoring service over HTTP.
type Executor struct {
	url  string
	http *http.Client
}

// New constructs an Executor.
func New(opts Options) (*Executor, error) {
	if opts.URL == "" {
		return nil, errors.New("scorer url is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Executor{url: opts.URL, http: hc}, nil
}

var _ core.ScoreExecutor = (*Executor)(nil)

type scoreRequest struct {
	ItemID     string          `json:"item_id"`
	Text       string          `json:"text"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	ScoreID    string          `json:"score_id"`
	ScoreName  string          `json:"score_name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

type scoreResponse struct {
	Value       string         `json:"value"`
	Explanation string         `json:"explanation"`
	Cost        model.Cost     `json:"cost"`
	Raw         map[string]any `json:"raw,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Execute POSTs one scoring request and decodes the reply. A reply carrying
// an error field becomes an error-kind output; transport and decode failures
// return an error, meaning the computation could not run.
func (e *Executor) Execute(ctx context.Context, in core.ExecuteInput) (*core.ScoreOutput, error) {
	if in.Item == nil {
		return nil, errors.New("item is required")
	}

	payload, err := json.Marshal(scoreRequest{
		ItemID:     in.Item.ID,
		Text:       in.Item.Text,
		Metadata:   in.Item.Metadata,
		ScoreID:    in.Score.ID,
		ScoreName:  in.Score.Name,
		Parameters: in.Score.Parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send score request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read score response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score request failed: status %d", resp.StatusCode)
	}

	var decoded scoreResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}

	if decoded.Error != "" {
		return &core.ScoreOutput{
			Value:       model.ValueError,
			Explanation: decoded.Error,
			Cost:        decoded.Cost,
			Raw:         decoded.Raw,
			Err:         true,
		}, nil
	}
	return &core.ScoreOutput{
		Value:       decoded.Value,
		Explanation: decoded.Explanation,
		Cost:        decoded.Cost,
		Raw:         decoded.Raw,
	}, nil
}
