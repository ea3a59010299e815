package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callgrade/callgrade/internal/domain/model"
)

func TestParseEvent_FeedBatch(t *testing.T) {
	raw := []byte(`{
		"Records": [
			{
				"eventName": "INSERT",
				"dynamodb": {
					"NewImage": {
						"id": {"S": "job-1"},
						"accountId": {"S": "acct-1"},
						"dispatchStatus": {"S": "PENDING"}
					}
				}
			},
			{"eventName": "REMOVE", "dynamodb": {}}
		]
	}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.True(t, event.HasRecords())
	require.Len(t, event.Records, 2)

	first := event.Records[0]
	assert.Equal(t, EventInsert, first.EventName)
	assert.Equal(t, "job-1", first.Change.NewImage["id"].String())
	assert.Equal(t, "PENDING", first.Change.NewImage["dispatchStatus"].String())
	assert.Equal(t, EventRemove, event.Records[1].EventName)
}

func TestParseEvent_EmptyRecordsStillABatch(t *testing.T) {
	event, err := ParseEvent([]byte(`{"Records": []}`))
	require.NoError(t, err)
	assert.True(t, event.HasRecords())
	assert.Empty(t, event.Records)
}

func TestParseEvent_DirectInvocation(t *testing.T) {
	event, err := ParseEvent([]byte(`{"source": "manual", "detail": {}}`))
	require.NoError(t, err)
	assert.False(t, event.HasRecords())
	assert.Empty(t, event.Records)
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"Records": "nope"}`))
	assert.Error(t, err)
}

func TestAttributeValue_String(t *testing.T) {
	s := "hello"
	assert.Equal(t, "hello", AttributeValue{S: &s}.String())

	n := "42"
	assert.Equal(t, "", AttributeValue{N: &n}.String())
	assert.Equal(t, "", AttributeValue{}.String())
}

func strAttr(s string) AttributeValue { return AttributeValue{S: &s} }

func TestDecodeJobImage(t *testing.T) {
	image := map[string]AttributeValue{
		"id":             strAttr("job-1"),
		"accountId":      strAttr("acct-1"),
		"command":        strAttr("score"),
		"target":         strAttr("voice/command"),
		"itemId":         strAttr("item-1"),
		"scorecardId":    strAttr("card-1"),
		"scoreId":        strAttr("score-1"),
		"dispatchStatus": strAttr("PENDING"),
	}

	job, err := DecodeJobImage(image)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "acct-1", job.AccountID)
	assert.Equal(t, "score", job.Command)
	assert.Equal(t, "voice/command", job.Target)
	assert.Equal(t, "item-1", job.ItemID)
	assert.Equal(t, "card-1", job.ScorecardID)
	assert.Equal(t, "score-1", job.ScoreID)
	assert.Equal(t, model.DispatchStatusPending, job.DispatchStatus)
}

func TestDecodeJobImage_Defaults(t *testing.T) {
	job, err := DecodeJobImage(map[string]AttributeValue{
		"id": strAttr("job-2"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTarget, job.Target)
	assert.Empty(t, string(job.DispatchStatus))
}

func TestDecodeJobImage_StatusUppercased(t *testing.T) {
	job, err := DecodeJobImage(map[string]AttributeValue{
		"id":             strAttr("job-3"),
		"dispatchStatus": strAttr("dispatched"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DispatchStatusDispatched, job.DispatchStatus)

	job, err = DecodeJobImage(map[string]AttributeValue{
		"id":             strAttr("job-4"),
		"dispatchStatus": strAttr("bogus"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DispatchStatus("BOGUS"), job.DispatchStatus)
	assert.False(t, job.DispatchStatus.Valid())
}

func TestDecodeJobImage_MissingID(t *testing.T) {
	_, err := DecodeJobImage(map[string]AttributeValue{
		"accountId": strAttr("acct-1"),
	})
	assert.ErrorIs(t, err, ErrMissingJobID)

	_, err = DecodeJobImage(map[string]AttributeValue{
		"id": strAttr("   "),
	})
	assert.ErrorIs(t, err, ErrMissingJobID)
}
