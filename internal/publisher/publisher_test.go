package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

type mockResultStore struct {
	createFunc func(ctx context.Context, result *model.Result) error

	mu      sync.Mutex
	created []*model.Result
}

func (m *mockResultStore) Create(ctx context.Context, result *model.Result) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, result); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, result)
	return nil
}

type mockResponseQueue struct {
	publishFunc func(ctx context.Context, summary model.ResultSummary) error

	mu        sync.Mutex
	published []model.ResultSummary
}

func (m *mockResponseQueue) Publish(ctx context.Context, summary model.ResultSummary) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, summary); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, summary)
	return nil
}

func (m *mockResponseQueue) summaries() []model.ResultSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ResultSummary(nil), m.published...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() PublishParams {
	return PublishParams{
		JobID:  "job-1",
		ItemID: "item-1",
		Score:  model.ScoreConfig{ID: "s1", Name: "Greeting"},
		Output: &core.ScoreOutput{
			Value:       "yes",
			Explanation: "greeted politely",
			Cost:        model.Cost{TotalCost: 0.02, Calls: 1},
		},
	}
}

func TestPublisher_Publish_PersistsAndNotifies(t *testing.T) {
	store := &mockResultStore{}
	responses := &mockResponseQueue{}

	p, err := New(Options{Results: store, Responses: responses, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	result, err := p.Publish(context.Background(), testParams())
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "item-1", result.ItemID)
	assert.Equal(t, "s1", result.ScoreID)
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "yes", result.Value)
	assert.Equal(t, 0.02, result.Metadata.Cost.TotalCost)
	assert.False(t, result.IsError())
	require.Len(t, store.created, 1)

	require.NoError(t, p.Flush(context.Background()))
	summaries := responses.summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, model.ResultSummary{
		ItemID:  "item-1",
		ScoreID: "s1",
		Value:   "yes",
		Cost:    model.Cost{TotalCost: 0.02, Calls: 1},
	}, summaries[0])
}

func TestPublisher_Publish_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("insert failed")
	store := &mockResultStore{
		createFunc: func(ctx context.Context, result *model.Result) error {
			return storeErr
		},
	}
	responses := &mockResponseQueue{}

	p, err := New(Options{Results: store, Responses: responses, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Publish(context.Background(), testParams())
	assert.ErrorIs(t, err, storeErr)

	// No summary leaves the pipeline when the authoritative write failed.
	require.NoError(t, p.Flush(context.Background()))
	assert.Empty(t, responses.summaries())
}

func TestPublisher_Publish_ResponseFailureIsSwallowed(t *testing.T) {
	store := &mockResultStore{}
	responses := &mockResponseQueue{
		publishFunc: func(ctx context.Context, summary model.ResultSummary) error {
			return errors.New("response queue down")
		},
	}

	p, err := New(Options{Results: store, Responses: responses, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	result, err := p.Publish(context.Background(), testParams())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Len(t, store.created, 1)

	require.NoError(t, p.Flush(context.Background()))
}

func TestPublisher_Publish_WithoutResponseQueue(t *testing.T) {
	store := &mockResultStore{}
	p, err := New(Options{Results: store, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Publish(context.Background(), testParams())
	require.NoError(t, err)
	require.NoError(t, p.Flush(context.Background()))
}

func TestPublisher_Publish_ErrorKindResult(t *testing.T) {
	store := &mockResultStore{}
	p, err := New(Options{Results: store, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	params := testParams()
	params.Output = &core.ScoreOutput{
		Value:       model.ValueError,
		Explanation: "model refused the prompt",
		Err:         true,
	}

	result, err := p.Publish(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError())
}

func TestPublisher_Publish_RequiresOutput(t *testing.T) {
	p, err := New(Options{Results: &mockResultStore{}, Logger: discardLogger()})
	require.NoError(t, err)
	defer p.Close()

	params := testParams()
	params.Output = nil
	_, err = p.Publish(context.Background(), params)
	assert.Error(t, err)
}

func TestPublisher_SubmitAfterCloseDrops(t *testing.T) {
	responses := &mockResponseQueue{}
	p, err := New(Options{Results: &mockResultStore{}, Responses: responses, Logger: discardLogger()})
	require.NoError(t, err)
	p.Close()

	// Publishing still persists; only the best-effort summary is dropped.
	result, err := p.Publish(context.Background(), testParams())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, responses.summaries())
}
