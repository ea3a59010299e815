// Package metrics provides standardized metric emission for the scoring
// pipeline.
package metrics

import (
	"time"

	obserrors "github.com/callgrade/callgrade/internal/observability/errors"
	"github.com/callgrade/callgrade/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// EmitDispatch records the outcome of one change-feed record dispatch.
func EmitDispatch(sink statsd.Sink, result string, err error) {
	if sink == nil {
		return
	}
	sink.Count("dispatch.record", 1, withErrorClass(map[string]string{
		"result": result,
	}, result, err))
}

// ProcessMetric captures details about one work-queue message for emission.
type ProcessMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitProcess records the outcome of one message-processing attempt.
func EmitProcess(sink statsd.Sink, in ProcessMetric) {
	if sink == nil {
		return
	}

	tags := withErrorClass(map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}, in.Result, in.Err)

	sink.Count("process.message", 1, tags)
	if in.Duration > 0 {
		sink.Timing("process.duration", in.Duration, tags)
	}
}

func withErrorClass(tags map[string]string, result string, err error) map[string]string {
	if err != nil && result == ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	return tags
}
