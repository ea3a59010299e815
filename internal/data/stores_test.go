package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callgrade/callgrade/internal/domain/model"
	"github.com/callgrade/callgrade/internal/testutil"
)

func seedAccount(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO accounts (id, key, name) VALUES ($1, $2, $3)`, id, key, key)
	require.NoError(t, err)
	return id
}

func seedItem(t *testing.T, db *sql.DB, accountID, externalID, text string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO items (id, external_id, account_id, text) VALUES ($1, $2, $3, $4)`,
		id, externalID, accountID, text)
	require.NoError(t, err)
	return id
}

func seedScorecard(t *testing.T, db *sql.DB, accountID, key, name, sections string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO scorecards (id, account_id, key, name, sections) VALUES ($1, $2, $3, $4, $5)`,
		id, accountID, key, name, sections)
	require.NoError(t, err)
	return id
}

func seedJob(t *testing.T, db *sql.DB, job model.ScoringJob) string {
	t.Helper()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.DispatchStatus == "" {
		job.DispatchStatus = model.DispatchStatusPending
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO scoring_jobs (id, account_id, command, target, item_id, scorecard_id, score_id, dispatch_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.AccountID, job.Command, job.Target,
		job.ItemID, job.ScorecardID, job.ScoreID, job.DispatchStatus)
	require.NoError(t, err)
	return job.ID
}

func TestJobStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	jobID := seedJob(t, db, model.ScoringJob{
		AccountID:   "acct-1",
		Command:     "score",
		Target:      "voice/command",
		ItemID:      "item-1",
		ScorecardID: "card-1",
		ScoreID:     "s1",
	})

	job, err := store.GetScoringJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "voice/command", job.Target)
	assert.Equal(t, model.DispatchStatusPending, job.DispatchStatus)

	require.NoError(t, store.UpdateDispatchStatus(ctx, jobID, model.DispatchStatusDispatched))
	job, err = store.GetScoringJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.DispatchStatusDispatched, job.DispatchStatus)

	_, err = store.GetScoringJob(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrJobNotFound)

	_, err = store.GetScoringJob(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)

	// Advancing a missing job is best-effort and succeeds quietly.
	assert.NoError(t, store.UpdateDispatchStatus(ctx, uuid.NewString(), model.DispatchStatusFailed))

	err = store.UpdateDispatchStatus(ctx, jobID, model.DispatchStatus("DONE"))
	var invalid *model.InvalidDispatchStatusError
	assert.ErrorAs(t, err, &invalid)
}

func TestJobStore_Stats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	seedJob(t, db, model.ScoringJob{DispatchStatus: model.DispatchStatusPending})
	seedJob(t, db, model.ScoringJob{DispatchStatus: model.DispatchStatusPending})
	seedJob(t, db, model.ScoringJob{DispatchStatus: model.DispatchStatusDispatched})
	seedJob(t, db, model.ScoringJob{DispatchStatus: model.DispatchStatusFailed})

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.JobStats{Pending: 2, Dispatched: 1, Failed: 1}, stats)
}

func TestItemStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewItemStore(db)
	ctx := context.Background()

	accountID := seedAccount(t, db, "acme")
	itemID := seedItem(t, db, accountID, "ext-1", "hello there")

	item, err := store.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", item.Text)
	assert.Equal(t, "ext-1", item.ExternalID)

	item, err = store.GetByExternalID(ctx, accountID, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)

	_, err = store.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	_, err = store.GetByExternalID(ctx, accountID, "ext-missing")
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	// External ids are scoped per account.
	otherAccount := seedAccount(t, db, "other")
	_, err = store.GetByExternalID(ctx, otherAccount, "ext-1")
	assert.ErrorIs(t, err, model.ErrItemNotFound)
}

func TestScorecardStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewScorecardStore(db)
	ctx := context.Background()

	accountID := seedAccount(t, db, "acme")
	sections := `[
		{"name": "opening", "scores": [
			{"id": "s1", "key": "greeting", "name": "Greeting"},
			{"id": "s2", "name": "Identity Verification"}
		]},
		{"name": "closing", "scores": [{"id": "s3", "name": "Wrap Up"}]}
	]`
	cardID := seedScorecard(t, db, accountID, "qa", "Quality Review", sections)

	for _, identifier := range []string{cardID, "qa", "Quality Review"} {
		sc, err := store.GetScorecard(ctx, accountID, identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, cardID, sc.ID)
		require.Len(t, sc.Sections, 2)
		assert.Len(t, sc.FlattenScores(), 3)
	}

	_, err := store.GetScorecard(ctx, accountID, "missing")
	assert.ErrorIs(t, err, model.ErrScorecardNotFound)

	_, err = store.GetScorecard(ctx, accountID, "")
	assert.ErrorIs(t, err, model.ErrScorecardNotFound)

	// Scorecards are invisible outside their account.
	otherAccount := seedAccount(t, db, "other")
	_, err = store.GetScorecard(ctx, otherAccount, "qa")
	assert.ErrorIs(t, err, model.ErrScorecardNotFound)
}

func TestAccountStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewAccountStore(db)
	ctx := context.Background()

	accountID := seedAccount(t, db, "acme")

	id, err := store.GetIDByKey(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, accountID, id)

	_, err = store.GetIDByKey(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	_, err = store.GetIDByKey(ctx, " ")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestResultStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewResultStore(db)
	ctx := context.Background()

	accountID := seedAccount(t, db, "acme")
	itemID := seedItem(t, db, accountID, "ext-1", "hello")

	result := &model.Result{
		ID:          uuid.NewString(),
		ItemID:      itemID,
		ScoreID:     "s1",
		JobID:       "job-1",
		Value:       "yes",
		Explanation: "greeted politely",
		Metadata:    model.ResultMetadata{Cost: model.Cost{TotalCost: 0.02, Calls: 1}},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, result))

	// Append-only: a second result for the same item and score is a new row.
	second := *result
	second.ID = uuid.NewString()
	require.NoError(t, store.Create(ctx, &second))

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE item_id = $1 AND score_id = $2`,
		itemID, "s1").Scan(&count))
	assert.Equal(t, 2, count)

	// An empty job id persists as NULL rather than an empty string.
	third := *result
	third.ID = uuid.NewString()
	third.JobID = ""
	require.NoError(t, store.Create(ctx, &third))
	var jobID sql.NullString
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT job_id FROM results WHERE id = $1`, third.ID).Scan(&jobID))
	assert.False(t, jobID.Valid)
}

func TestResultStore_Create_MissingItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewResultStore(db)

	err := store.Create(context.Background(), &model.Result{
		ID:      uuid.NewString(),
		ItemID:  uuid.NewString(),
		ScoreID: "s1",
		Value:   "yes",
	})
	assert.ErrorIs(t, err, model.ErrItemNotFound)
}

func TestStores_NotConfigured(t *testing.T) {
	ctx := context.Background()

	_, err := (&JobStore{}).GetScoringJob(ctx, "id")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)

	_, err = (&ItemStore{}).GetByID(ctx, "id")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)

	_, err = (&ScorecardStore{}).GetScorecard(ctx, "acct", "id")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)

	_, err = (&AccountStore{}).GetIDByKey(ctx, "key")
	assert.ErrorIs(t, err, ErrStoreNotConfigured)

	assert.ErrorIs(t, (&ResultStore{}).Create(ctx, &model.Result{ID: "r"}), ErrStoreNotConfigured)
}
