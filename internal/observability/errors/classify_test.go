package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/callgrade/callgrade/internal/domain/model"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))

	assert.Equal(t, "errors_errorstring", Classify(goerrors.New("plain")))

	var invalid error = &model.InvalidDispatchStatusError{Value: "nope"}
	assert.Equal(t, "model_invaliddispatchstatuserror", Classify(invalid))
}

func TestClassify_Sentinels(t *testing.T) {
	assert.Equal(t, "job_not_found", Classify(model.ErrJobNotFound))
	assert.Equal(t, "item_not_found", Classify(model.ErrItemNotFound))
	assert.Equal(t, "scorecard_not_found", Classify(model.ErrScorecardNotFound))
	assert.Equal(t, "account_not_found", Classify(model.ErrAccountNotFound))
	assert.Equal(t, "no_messages", Classify(model.ErrNoMessages))

	// Wrapping does not hide a sentinel's class.
	wrapped := fmt.Errorf("load scoring job: %w", model.ErrJobNotFound)
	assert.Equal(t, "job_not_found", Classify(wrapped))
}
