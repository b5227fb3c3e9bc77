package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrat/dietbuddy-intake/internal/collector"
)

func TestInMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Hour)

	session, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.SessionID)
	assert.Empty(t, session.Messages)

	session.State.IntentLock = "therapy"
	session.State.AwaitingSlot = "age"
	session.State.RetryCount = 2
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "therapy", got.State.IntentLock)
	assert.Equal(t, "age", got.State.AwaitingSlot)
	assert.Equal(t, 2, got.State.RetryCount)
}

func TestInMemStorePersistsCollector(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Hour)

	session, _ := store.LoadSession(ctx, "s1")
	session.State.Collector = collector.NewLinear("type 1 diabetes", nil)
	session.State.Collector.ProcessAnswer("12")
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.State.Collector)
	assert.Equal(t, 1, got.State.Collector.Index)
	assert.False(t, got.State.Collector.Complete())
}

func TestInMemStoreMessages(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Hour)

	msg := Message{Role: "user", Content: "hello", Timestamp: time.Now()}
	require.NoError(t, store.SaveMessage(ctx, "s1", "u1", msg))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 1, got.Metadata.MessageCount)

	exists, err := store.SessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.ClearSession(ctx, "s1"))
	exists, _ = store.SessionExists(ctx, "s1")
	assert.False(t, exists)
}

func TestInMemStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Millisecond)

	session, _ := store.LoadSession(ctx, "old")
	require.NoError(t, store.SaveSession(ctx, session))
	time.Sleep(5 * time.Millisecond)

	removed := store.Sweep()
	assert.Equal(t, 1, removed)

	exists, _ := store.SessionExists(ctx, "old")
	assert.False(t, exists)
}

func TestManagerStateHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewInMemStore(time.Hour))

	session, err := m.LoadState(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, session.State)
	require.NotNil(t, session.State.Profile)

	session.State.MealPlanConsent = true
	require.NoError(t, m.SaveState(ctx, session))

	got, err := m.LoadState(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.State.MealPlanConsent)
}
