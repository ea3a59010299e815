package feed

import (
	"errors"
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// ErrMissingJobID indicates a feed image without a usable id attribute.
var ErrMissingJobID = errors.New("feed image has no id attribute")

// DecodeJobImage deserializes the post-change image of a scoring-job record
// into a ScoringJob. Absent optional attributes decode to zero values; the
// routing target defaults when the record carries none.
func DecodeJobImage(image map[string]AttributeValue) (*model.ScoringJob, error) {
	id := image["id"].String()
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingJobID
	}

	job := &model.ScoringJob{
		ID:          id,
		AccountID:   image["accountId"].String(),
		Command:     image["command"].String(),
		Target:      image["target"].String(),
		ItemID:      image["itemId"].String(),
		ScorecardID: image["scorecardId"].String(),
		ScoreID:     image["scoreId"].String(),
	}
	if job.Target == "" {
		job.Target = model.DefaultTarget
	}

	// Uppercased but otherwise untranslated; the dispatcher's PENDING check
	// skips anything else, including an absent status.
	job.DispatchStatus = model.DispatchStatus(strings.ToUpper(image["dispatchStatus"].String()))

	return job, nil
}
