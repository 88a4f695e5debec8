package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyOutboundCountUsesLocalDayWindow(t *testing.T) {
	messages := &mockMessageStore{count: 7}
	q := NewQuotaCounter(messages, nil)
	q.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local)
	}

	count, err := q.DailyOutboundCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	wantFrom := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	assert.Equal(t, wantFrom, messages.lastFrom)
	assert.Equal(t, wantFrom.Add(24*time.Hour), messages.lastTo, "window must end at next midnight so yesterday never counts")
}

func TestDailyOutboundCountPrefersCache(t *testing.T) {
	messages := &mockMessageStore{count: 99}
	cache := newMockQuotaCache()
	cache.values[1] = 42
	q := NewQuotaCounter(messages, cache)

	count, err := q.DailyOutboundCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.True(t, messages.lastFrom.IsZero(), "cache hit must skip the log query")
}

func TestDailyOutboundCountFillsCacheOnMiss(t *testing.T) {
	messages := &mockMessageStore{count: 17}
	cache := newMockQuotaCache()
	q := NewQuotaCounter(messages, cache)

	count, err := q.DailyOutboundCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 17, count)
	assert.Equal(t, 17, cache.sets[1])
}

func TestUnderLimitBoundary(t *testing.T) {
	tests := []struct {
		count int
		want  bool
	}{
		{0, true},
		{119, true},
		{120, false},
		{500, false},
	}

	for _, tt := range tests {
		messages := &mockMessageStore{count: tt.count}
		q := NewQuotaCounter(messages, nil)

		under, err := q.UnderLimit(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, tt.want, under, "count %d", tt.count)
	}
}

func TestInvalidateIsNoopWithoutCache(t *testing.T) {
	q := NewQuotaCounter(&mockMessageStore{}, nil)
	q.Invalidate(context.Background(), 1)

	cache := newMockQuotaCache()
	cache.values[1] = 5
	q = NewQuotaCounter(&mockMessageStore{}, cache)
	q.Invalidate(context.Background(), 1)
	assert.Contains(t, cache.invalidated, 1)
}
