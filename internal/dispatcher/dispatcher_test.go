package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callgrade/callgrade/internal/domain/feed"
	"github.com/callgrade/callgrade/internal/domain/model"
)

type mockWorkQueue struct {
	enqueueFunc func(ctx context.Context, msg model.WorkMessage) error
	enqueued    []model.WorkMessage
}

func (m *mockWorkQueue) Enqueue(ctx context.Context, msg model.WorkMessage) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockWorkQueue) Receive(ctx context.Context, timeout time.Duration) (*model.Delivery, error) {
	return nil, errors.New("not implemented")
}

func (m *mockWorkQueue) Ack(ctx context.Context, d *model.Delivery) error {
	return errors.New("not implemented")
}

type mockJobStore struct {
	updateFunc func(ctx context.Context, id string, status model.DispatchStatus) error
}

func (m *mockJobStore) GetScoringJob(ctx context.Context, id string) (*model.ScoringJob, error) {
	return nil, errors.New("not implemented")
}

func (m *mockJobStore) UpdateDispatchStatus(ctx context.Context, id string, status model.DispatchStatus) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, status)
	}
	return nil
}

func (m *mockJobStore) Stats(ctx context.Context) (*model.JobStats, error) {
	return nil, errors.New("not implemented")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strAttr(s string) feed.AttributeValue { return feed.AttributeValue{S: &s} }

func insertRecord(id, status string) feed.StreamRecord {
	image := map[string]feed.AttributeValue{
		"id":      strAttr(id),
		"command": strAttr("score"),
		"target":  strAttr("voice/command"),
	}
	if status != "" {
		image["dispatchStatus"] = strAttr(status)
	}
	return feed.StreamRecord{
		EventName: feed.EventInsert,
		Change:    feed.StreamChange{NewImage: image},
	}
}

func TestDispatcher_HandleBatch_EnqueuesPendingInserts(t *testing.T) {
	queue := &mockWorkQueue{}
	statuses := make(map[string]model.DispatchStatus)
	jobs := &mockJobStore{
		updateFunc: func(ctx context.Context, id string, status model.DispatchStatus) error {
			statuses[id] = status
			return nil
		},
	}

	d, err := New(Options{Queue: queue, Jobs: jobs, Logger: discardLogger()})
	require.NoError(t, err)

	summary := d.HandleBatch(context.Background(), []feed.StreamRecord{
		insertRecord("job-1", "PENDING"),
	})
	assert.Equal(t, Summary{Enqueued: 1}, summary)

	require.Len(t, queue.enqueued, 1)
	msg := queue.enqueued[0]
	assert.Equal(t, model.TaskNameExecuteCommand, msg.TaskName)
	assert.Equal(t, []string{"score"}, msg.Args)
	require.NotNil(t, msg.Kwargs)
	assert.Equal(t, "voice/command", msg.Kwargs.Target)
	assert.Equal(t, "job-1", msg.Kwargs.TaskID)

	assert.Equal(t, model.DispatchStatusDispatched, statuses["job-1"])
}

func TestDispatcher_HandleBatch_SkipsNonInsertAndNonPending(t *testing.T) {
	queue := &mockWorkQueue{}
	d, err := New(Options{Queue: queue, Logger: discardLogger()})
	require.NoError(t, err)

	modify := insertRecord("job-1", "PENDING")
	modify.EventName = feed.EventModify

	summary := d.HandleBatch(context.Background(), []feed.StreamRecord{
		modify,
		{EventName: feed.EventRemove},
		insertRecord("job-2", "DISPATCHED"),
		insertRecord("job-3", ""), // no dispatchStatus attribute at all
	})

	assert.Equal(t, Summary{Skipped: 4}, summary)
	assert.Empty(t, queue.enqueued)
}

func TestDispatcher_HandleBatch_FailureIsolation(t *testing.T) {
	queue := &mockWorkQueue{
		enqueueFunc: func(ctx context.Context, msg model.WorkMessage) error {
			if msg.Kwargs != nil && msg.Kwargs.TaskID == "job-2" {
				return errors.New("queue unavailable")
			}
			return nil
		},
	}
	d, err := New(Options{Queue: queue, Logger: discardLogger()})
	require.NoError(t, err)

	undecodable := feed.StreamRecord{
		EventName: feed.EventInsert,
		Change: feed.StreamChange{NewImage: map[string]feed.AttributeValue{
			"accountId": strAttr("acct-1"),
		}},
	}

	summary := d.HandleBatch(context.Background(), []feed.StreamRecord{
		insertRecord("job-1", "PENDING"),
		undecodable,
		insertRecord("job-2", "PENDING"),
		insertRecord("job-3", "PENDING"),
	})

	assert.Equal(t, Summary{Enqueued: 2, Failed: 2}, summary)
	require.Len(t, queue.enqueued, 2)
	assert.Equal(t, "job-1", queue.enqueued[0].Kwargs.TaskID)
	assert.Equal(t, "job-3", queue.enqueued[1].Kwargs.TaskID)
}

func TestDispatcher_HandleBatch_StatusAdvanceIsBestEffort(t *testing.T) {
	queue := &mockWorkQueue{}
	jobs := &mockJobStore{
		updateFunc: func(ctx context.Context, id string, status model.DispatchStatus) error {
			return errors.New("record store write failed")
		},
	}
	d, err := New(Options{Queue: queue, Jobs: jobs, Logger: discardLogger()})
	require.NoError(t, err)

	summary := d.HandleBatch(context.Background(), []feed.StreamRecord{
		insertRecord("job-1", "PENDING"),
	})

	// The enqueue already happened; a failed status advance never fails the record.
	assert.Equal(t, Summary{Enqueued: 1}, summary)
	assert.Len(t, queue.enqueued, 1)
}

func TestDispatcher_New_RequiresQueue(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
