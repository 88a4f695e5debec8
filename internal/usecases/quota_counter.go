package usecases

import (
	"context"
	"time"

	"neobot/internal/interfaces"
)

// dailyMessageLimit is the concealed per-tenant outbound ceiling per
// calendar day (server local time). It is an operational safety valve
// independent of the billed monthly quota and must never appear in any
// tenant-facing text.
const dailyMessageLimit = 120

// QuotaCounter derives today's outbound count for a tenant from the
// message log. There is no stored counter to drift; the optional cache
// only bounds query cost and is invalidated on every send.
type QuotaCounter struct {
	messages interfaces.MessageStore
	cache    interfaces.QuotaCache // nil disables caching

	now func() time.Time
}

func NewQuotaCounter(messages interfaces.MessageStore, cache interfaces.QuotaCache) *QuotaCounter {
	return &QuotaCounter{
		messages: messages,
		cache:    cache,
		now:      time.Now,
	}
}

// DailyOutboundCount counts outbound messages in [local midnight,
// local midnight + 24h) for the tenant.
func (q *QuotaCounter) DailyOutboundCount(ctx context.Context, tenantID int) (int, error) {
	if q.cache != nil {
		if count, ok := q.cache.Get(ctx, tenantID); ok {
			return count, nil
		}
	}

	now := q.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := q.messages.CountOutboundBetween(ctx, tenantID, midnight, midnight.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}

	if q.cache != nil {
		q.cache.Set(ctx, tenantID, count)
	}
	return count, nil
}

// UnderLimit reports whether the tenant may still send today.
func (q *QuotaCounter) UnderLimit(ctx context.Context, tenantID int) (bool, error) {
	count, err := q.DailyOutboundCount(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return count < dailyMessageLimit, nil
}

// UsagePercent converts a daily count to a percentage of the ceiling.
func (q *QuotaCounter) UsagePercent(count int) float64 {
	return float64(count) / float64(dailyMessageLimit) * 100
}

// Invalidate drops the cached count after a send so the next check
// re-derives it from the log.
func (q *QuotaCounter) Invalidate(ctx context.Context, tenantID int) {
	if q.cache != nil {
		q.cache.Invalidate(ctx, tenantID)
	}
}
