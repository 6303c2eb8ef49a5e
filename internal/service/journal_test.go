package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mavericksstream/unlock/internal/db"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/repository"
	"github.com/mavericksstream/unlock/internal/service"
	"github.com/mavericksstream/unlock/internal/unlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptJournal(t *testing.T) {
	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	journal := service.NewAttemptJournal(repository.NewAttemptRepository(conn))
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	price := model.Price{Amount: 999, Currency: "usd"}

	journal.OnTransition(ctx, unlock.Transition{
		AttemptID: "att-1", ContentID: "42", From: unlock.Idle, To: unlock.Initializing,
		Message: "Processing unlock...", Price: price, At: at,
	})
	journal.OnTransition(ctx, unlock.Transition{
		AttemptID: "att-1", ContentID: "42", IntentID: "pi_1", From: unlock.Processing, To: unlock.Failed,
		Kind: unlock.ProviderValidationError, Message: "Your card was declined.", Price: price, At: at.Add(time.Second),
	})
	journal.OnTransition(ctx, unlock.Transition{
		AttemptID: "att-2", ContentID: "7", From: unlock.Idle, To: unlock.Failed,
		Kind: unlock.NoPaymentSource, At: at.Add(2 * time.Second),
	})

	events, err := journal.History(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "idle", events[0].FromState)
	assert.Equal(t, "initializing", events[0].ToState)
	assert.Nil(t, events[0].IntentID)
	assert.Nil(t, events[0].ErrorKind)
	require.NotNil(t, events[0].Amount)
	assert.Equal(t, int64(999), *events[0].Amount)

	assert.True(t, events[1].IsFailure())
	assert.Equal(t, "provider_validation_error", *events[1].ErrorKind)
	assert.Equal(t, "pi_1", *events[1].IntentID)
	assert.Equal(t, "Your card was declined.", events[1].Message)

	recent, err := journal.History(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "7", recent[0].ContentID)
	assert.Nil(t, recent[0].Amount)
}
