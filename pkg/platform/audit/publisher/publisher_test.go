package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "medbee/pkg/domain"
	audit "medbee/pkg/platform/audit"
	"medbee/pkg/platform/audit/store/memory"
)

type failingStore struct {
	*memory.InMemoryStore
}

func (failingStore) Append(context.Context, audit.Entry) error {
	return errors.New("disk full")
}

type countingMetrics struct {
	mu      sync.Mutex
	written int
	failed  int
}

func (m *countingMetrics) IncrementAuditWritten() { m.mu.Lock(); m.written++; m.mu.Unlock() }
func (m *countingMetrics) IncrementAuditFailed()  { m.mu.Lock(); m.failed++; m.mu.Unlock() }
func (m *countingMetrics) SetAuditQueueDepth(int) {}

type recordingMirror struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *recordingMirror) Publish(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func newEntry(actor id.UserID, endpoint string) audit.Entry {
	return audit.Entry{
		ActorID:        actor,
		Action:         "POST",
		Method:         "POST",
		Endpoint:       endpoint,
		ResponseStatus: 200,
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	require.NoError(t, pub.Emit(context.Background(), newEntry(userID, "/api/v1/auth/login")))

	entries, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/v1/auth/login", entries[0].Endpoint)
	assert.False(t, entries[0].ID.IsNil(), "publisher assigns an id")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	userID := id.UserID(uuid.New())
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), newEntry(userID, "/api/v1/analytics/app-usage")))
	}
	pub.Close()

	entries, err := store.ListByActor(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, entries, 10, "all entries should be drained on close")
}

func TestPublisher_FullQueueStillPersists(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	userID := id.UserID(uuid.New())
	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pub.Emit(context.Background(), newEntry(userID, "/api/v1/health/records")))
		}()
	}
	wg.Wait()
	pub.Close()

	entries, err := store.ListByActor(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, entries, 25)
}

func TestPublisher_CancelledRequestContextDoesNotLoseEntry(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	userID := id.UserID(uuid.New())
	require.NoError(t, pub.Emit(ctx, newEntry(userID, "/api/v1/auth/profile")))
	pub.Close()

	entries, err := store.ListByActor(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	t.Run("missing timestamp is set", func(t *testing.T) {
		userID := id.UserID(uuid.New())
		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), newEntry(userID, "/x")))
		after := time.Now()

		entries, err := pub.List(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Timestamp.Before(before))
		assert.False(t, entries[0].Timestamp.After(after))
	})

	t.Run("existing timestamp is preserved", func(t *testing.T) {
		userID := id.UserID(uuid.New())
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		entry := newEntry(userID, "/x")
		entry.Timestamp = custom
		require.NoError(t, pub.Emit(context.Background(), entry))

		entries, err := pub.List(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, custom, entries[0].Timestamp)
	})
}

func TestPublisher_FailuresAreCountedNotPropagatedAsync(t *testing.T) {
	metrics := &countingMetrics{}
	pub := NewPublisher(failingStore{memory.NewInMemoryStore()}, WithAsyncBuffer(4), WithMetrics(metrics))

	require.NoError(t, pub.Emit(context.Background(), newEntry(id.UserID(uuid.New()), "/x")))
	pub.Close()

	assert.Equal(t, 1, metrics.failed)
	assert.Zero(t, metrics.written)
}

func TestPublisher_SyncFailureIsReturned(t *testing.T) {
	pub := NewPublisher(failingStore{memory.NewInMemoryStore()})
	defer pub.Close()

	err := pub.Emit(context.Background(), newEntry(id.UserID(uuid.New()), "/x"))
	assert.Error(t, err)
}

func TestPublisher_MirrorsReceiveStoredEntries(t *testing.T) {
	mirror := &recordingMirror{}
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(4), WithMirror(mirror))

	require.NoError(t, pub.Emit(context.Background(), newEntry(id.UserID(uuid.New()), "/api/v1/auth/login")))
	pub.Close()

	require.Len(t, mirror.entries, 1)
	assert.Equal(t, "/api/v1/auth/login", mirror.entries[0].Endpoint)
}
