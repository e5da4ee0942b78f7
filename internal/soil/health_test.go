package soil

import (
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietcreek/soil-intel-service/internal/observability"
	"github.com/quietcreek/soil-intel-service/internal/store"
)

func newTestTracker(kv store.KeyValueStore, clock clockwork.Clock) *HealthTracker {
	return NewHealthTracker(kv, clock, testLogger(), observability.NewMetricsForTesting())
}

func TestHealthTracker_SingleTransientFailureStaysClosed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusServiceUnavailable)

	assert.False(t, h.IsDown(), "one 503 must not open the circuit")
	assert.True(t, h.Allow())
}

func TestHealthTracker_SecondFailureOpens(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusServiceUnavailable)
	h.RecordFailure(0) // transport error

	assert.True(t, h.IsDown())
	assert.False(t, h.Allow())
}

func TestHealthTracker_RateLimitOpensImmediately(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusTooManyRequests)

	assert.True(t, h.IsDown(), "a single 429 opens the circuit")
}

func TestHealthTracker_HardServerErrorOpensImmediately(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusInternalServerError)

	assert.True(t, h.IsDown(), "a non-retryable 5xx opens the circuit")
}

func TestHealthTracker_SuccessResets(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusServiceUnavailable)
	h.RecordSuccess()
	h.RecordFailure(http.StatusServiceUnavailable)

	assert.False(t, h.IsDown(), "success must reset the consecutive-failure count")
}

func TestHealthTracker_CooldownProbe(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newTestTracker(store.NewMemoryStore(), clock)

	h.RecordFailure(http.StatusTooManyRequests)
	require.True(t, h.IsDown())

	clock.Advance(5*time.Minute - time.Second)
	assert.False(t, h.Allow(), "still cooling down")

	clock.Advance(2 * time.Second)
	assert.True(t, h.Allow(), "cooldown elapsed, one probe allowed")
	assert.True(t, h.IsDown(), "probe permission does not close the circuit")

	// A failed probe restarts the cooldown.
	h.RecordFailure(http.StatusTooManyRequests)
	assert.False(t, h.Allow())

	// A successful probe closes it.
	clock.Advance(5 * time.Minute)
	require.True(t, h.Allow())
	h.RecordSuccess()
	assert.False(t, h.IsDown())
}

func TestHealthTracker_PersistsAcrossRestart(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	kv := store.NewMemoryStore()

	h1 := newTestTracker(kv, clock)
	h1.RecordFailure(http.StatusTooManyRequests)
	require.True(t, h1.IsDown())

	h2 := newTestTracker(kv, clock)
	assert.True(t, h2.IsDown(), "open circuit must survive a restart")
	assert.False(t, h2.Allow())
}

func TestHealthTracker_CorruptedStateAssumesClosed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(healthKey, []byte("???")))

	h := newTestTracker(kv, clock)
	assert.False(t, h.IsDown())
	assert.True(t, h.Allow())
}

func TestHealthTracker_Reset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	kv := store.NewMemoryStore()

	h := newTestTracker(kv, clock)
	h.RecordFailure(http.StatusTooManyRequests)
	h.Reset()

	assert.False(t, h.IsDown())
	_, ok, err := kv.Get(healthKey)
	require.NoError(t, err)
	assert.False(t, ok, "persisted state should be deleted")
}
