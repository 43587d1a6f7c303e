package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/models"
)

func newTestStore() *ExchangeStore {
	return NewExchangeStore(time.Hour, time.Hour, logger.NewTestLogger())
}

func TestExchangeStoreConsumeOnlyWhenCompleted(t *testing.T) {
	store := newTestStore()

	store.Open("AB12CD", "r1", &models.CommandBody{RequestID: "r1", CommandType: "ping"})

	// Pending: record stays, repeated polls are safe.
	assert.Nil(t, store.Consume("AB12CD", "r1"))
	assert.Nil(t, store.Consume("AB12CD", "r1"))
	assert.True(t, store.Pending("AB12CD", "r1"))

	store.Complete("AB12CD", "r1", &models.ExchangeResult{
		Response: &models.ResponseBody{RequestID: "r1", Status: "success"},
	})

	record := store.Consume("AB12CD", "r1")
	require.NotNil(t, record)
	assert.Equal(t, "success", record.Result.Response.Status)
	assert.False(t, record.CompletedAt.IsZero())

	// Consumed exactly once.
	assert.Nil(t, store.Consume("AB12CD", "r1"))
}

func TestExchangeStoreCompleteWithoutOpen(t *testing.T) {
	store := newTestStore()

	// A response that raced ahead of its open, or outlived an eviction, is
	// still retrievable until the next sweep.
	store.Complete("AB12CD", "r9", &models.ExchangeResult{
		Response: &models.ResponseBody{RequestID: "r9", Status: "success"},
	})

	record := store.Consume("AB12CD", "r9")
	require.NotNil(t, record)
	assert.Nil(t, record.Command)
	assert.Equal(t, "success", record.Result.Response.Status)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestExchangeStoreKeyReuseLastWriterWins(t *testing.T) {
	store := newTestStore()

	store.Open("AB12CD", "r1", &models.CommandBody{RequestID: "r1", CommandType: "ping"})
	store.Open("AB12CD", "r1", &models.CommandBody{RequestID: "r1", CommandType: "screenshot"})

	store.Complete("AB12CD", "r1", &models.ExchangeResult{
		Response: &models.ResponseBody{RequestID: "r1", Status: "success"},
	})

	record := store.Consume("AB12CD", "r1")
	require.NotNil(t, record)
	assert.Equal(t, "screenshot", record.Command.CommandType)
}

func TestExchangeStoreKeysAreScopedByNode(t *testing.T) {
	store := newTestStore()

	store.Open("AA11AA", "r1", &models.CommandBody{RequestID: "r1"})
	store.Complete("BB22BB", "r1", &models.ExchangeResult{
		Response: &models.ResponseBody{RequestID: "r1", Status: "success"},
	})

	assert.Nil(t, store.Consume("AA11AA", "r1"))
	assert.NotNil(t, store.Consume("BB22BB", "r1"))
}

func TestExchangeStoreSweep(t *testing.T) {
	store := newTestStore()

	base := time.Now()
	store.now = func() time.Time { return base }

	store.Open("AB12CD", "old-pending", &models.CommandBody{RequestID: "old-pending"})
	store.Complete("AB12CD", "old-done", &models.ExchangeResult{
		Response: &models.ResponseBody{RequestID: "old-done", Status: "success"},
	})

	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	store.Open("AB12CD", "fresh", &models.CommandBody{RequestID: "fresh"})

	// Evicts everything older than the cutoff, completed or not.
	evicted := store.Sweep(base.Add(time.Minute))
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, store.Len())

	assert.Nil(t, store.Consume("AB12CD", "old-done"))
	assert.True(t, store.Pending("AB12CD", "fresh"))
}

func TestExchangeStoreJanitorStartsOnce(t *testing.T) {
	store := NewExchangeStore(time.Hour, 10*time.Millisecond, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.StartJanitor(ctx)
	store.StartJanitor(ctx)

	store.mu.Lock()
	store.records[exchangeKey{"AB12CD", "stale"}] = &models.ExchangeRecord{
		NodeID:    "AB12CD",
		RequestID: "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	store.mu.Unlock()

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
