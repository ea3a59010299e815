// Package executor shapes the output of the injected scoring computation:
// it converts computation failures into error-kind result values and applies
// optional result-path extraction to raw outputs.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// ErrMissingScoreConfig indicates an execution request without a usable
// score configuration. This is a "could not run" failure, distinct from a
// computation that ran and reported an error value.
var ErrMissingScoreConfig = errors.New("score configuration is required")

// Options configure a Shield.
type Options struct {
	Inner  core.ScoreExecutor
	Logger *slog.Logger
}

// Shield wraps a ScoreExecutor. Failures raised by the inner computation are
// captured as error-kind outputs so the pipeline records them as data; only
// requests that cannot run at all return an error.
type Shield struct {
	inner  core.ScoreExecutor
	logger *slog.Logger
}

// NewShield constructs a Shield around the injected computation.
func NewShield(opts Options) (*Shield, error) {
	if opts.Inner == nil {
		return nil, errors.New("inner executor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Shield{inner: opts.Inner, logger: logger}, nil
}

var _ core.ScoreExecutor = (*Shield)(nil)

// Execute runs the inner computation and post-processes its output.
func (s *Shield) Execute(ctx context.Context, in core.ExecuteInput) (*core.ScoreOutput, error) {
	if in.Item == nil {
		return nil, errors.New("item is required")
	}
	if in.Score.ID == "" && in.Score.Name == "" {
		return nil, ErrMissingScoreConfig
	}

	out, err := s.inner.Execute(ctx, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "score computation reported an error",
			"item_id", in.Item.ID, "score_id", in.Score.ID, "error", err)
		return &core.ScoreOutput{
			Value:       model.ValueError,
			Explanation: err.Error(),
			Err:         true,
		}, nil
	}
	if out == nil {
		return nil, fmt.Errorf("executor returned no output for score %q", in.Score.ID)
	}
	if out.Err {
		return out, nil
	}

	value, extractErr := ExtractValue(out, in.Score)
	if extractErr != nil {
		s.logger.ErrorContext(ctx, "result path extraction failed",
			"item_id", in.Item.ID, "score_id", in.Score.ID,
			"result_path", in.Score.ResultPath, "error", extractErr)
		return &core.ScoreOutput{
			Value:       model.ValueError,
			Explanation: extractErr.Error(),
			Cost:        out.Cost,
			Raw:         out.Raw,
			Err:         true,
		}, nil
	}
	out.Value = value
	return out, nil
}
