package usecases

import (
	"context"
	"time"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"
	"neobot/internal/interfaces"

	"github.com/rs/zerolog/log"
)

type SendStatus string

const (
	SendStatusSent                 SendStatus = "sent"
	SendStatusTemporaryUnavailable SendStatus = "temporary_unavailable"
	SendStatusNotConnected         SendStatus = "not_connected"
	SendStatusFailed               SendStatus = "failed"
)

// User-facing texts for non-sent outcomes. The temporary-unavailable
// wording deliberately hides that a quota was hit.
const (
	msgTemporaryUnavailable = "Service temporarily unavailable. Please try again later."
	msgNotConnected         = "Bot not connected. Please scan the QR code."
	msgSendFailed           = "Message could not be delivered. Please try again."
)

type SendResult struct {
	Status    SendStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// MessageGateway is the single entry point for outbound delivery and
// inbound webhook traffic. The pre-send checks run quota first, then
// connection: a disconnected-but-throttled tenant sees the masking
// message, not a connection prompt, so the throttling never shows
// through the choice of error.
type MessageGateway struct {
	sessions  interfaces.SessionStore
	tenants   interfaces.TenantStore
	messages  interfaces.MessageStore
	transport interfaces.Transport
	quota     *QuotaCounter
	lifecycle *ConnectionLifecycle
	ai        interfaces.AIClient
	limiter   *infrastructure.MessageRateLimiter

	sendTimeout time.Duration
	now         func() time.Time
}

func NewMessageGateway(
	sessions interfaces.SessionStore,
	tenants interfaces.TenantStore,
	messages interfaces.MessageStore,
	transport interfaces.Transport,
	quota *QuotaCounter,
	lifecycle *ConnectionLifecycle,
	ai interfaces.AIClient,
	limiter *infrastructure.MessageRateLimiter,
) *MessageGateway {
	return &MessageGateway{
		sessions:    sessions,
		tenants:     tenants,
		messages:    messages,
		transport:   transport,
		quota:       quota,
		lifecycle:   lifecycle,
		ai:          ai,
		limiter:     limiter,
		sendTimeout: 15 * time.Second,
		now:         time.Now,
	}
}

// Send delivers a text message to a customer. Business outcomes
// (throttled, not connected, delivery failure) come back in the result;
// the error return is reserved for persistence failures.
func (g *MessageGateway) Send(ctx context.Context, tenantID int, to, body string) (*SendResult, error) {
	return g.send(ctx, tenantID, to, body, false)
}

func (g *MessageGateway) send(ctx context.Context, tenantID int, to, body string, isAI bool) (*SendResult, error) {
	// Quota first. The transport is never contacted for a throttled
	// tenant, and the reply text never names the reason.
	under, err := g.quota.UnderLimit(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !under {
		log.Info().Int("tenant_id", tenantID).Msg("send throttled by daily ceiling")
		return &SendResult{
			Status:    SendStatusTemporaryUnavailable,
			Message:   msgTemporaryUnavailable,
			Timestamp: g.now(),
		}, nil
	}

	sess, err := g.sessions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsConnected {
		return &SendResult{
			Status:    SendStatusNotConnected,
			Message:   msgNotConnected,
			Timestamp: g.now(),
		}, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, g.sendTimeout)
	defer cancel()
	if err := g.transport.Send(sendCtx, tenantID, to, body); err != nil {
		// Transport detail stays in the logs; callers get a generic
		// failure.
		log.Error().Err(err).Int("tenant_id", tenantID).Msg("transport send failed")
		return &SendResult{
			Status:    SendStatusFailed,
			Message:   msgSendFailed,
			Timestamp: g.now(),
		}, nil
	}

	g.recordOutbound(ctx, tenantID, to, body, isAI)

	return &SendResult{
		Status:    SendStatusSent,
		Timestamp: g.now(),
	}, nil
}

// recordOutbound appends the delivered message to the log and refreshes
// the derived counters. The message already left; a failed append is
// logged and tolerated (the counter under-counts by one instead of
// desyncing).
func (g *MessageGateway) recordOutbound(ctx context.Context, tenantID int, to, body string, isAI bool) {
	conv, err := g.messages.EnsureConversation(ctx, tenantID, to)
	if err != nil {
		log.Error().Err(err).Int("tenant_id", tenantID).Msg("conversation lookup after send failed")
		return
	}
	if err := g.messages.Append(ctx, conv.ID, body, entities.DirectionOutbound, isAI); err != nil {
		log.Error().Err(err).Int("tenant_id", tenantID).Msg("outbound log append failed")
		return
	}

	g.quota.Invalidate(ctx, tenantID)

	if err := g.lifecycle.TouchActivity(ctx, tenantID); err != nil {
		log.Warn().Err(err).Int("tenant_id", tenantID).Msg("last-activity update failed")
	}
	if err := g.tenants.IncrementMessagesUsed(ctx, tenantID); err != nil {
		log.Warn().Err(err).Int("tenant_id", tenantID).Msg("billed usage increment failed")
	}

	if count, err := g.quota.DailyOutboundCount(ctx, tenantID); err == nil {
		log.Info().Int("tenant_id", tenantID).Int("daily_count", count).Msg("message sent")
	}
}

// HandleInbound processes a customer message from the webhook: log it,
// generate an AI reply and deliver it through the same guarded send path.
func (g *MessageGateway) HandleInbound(ctx context.Context, tenantID int, fromPhone, body string) error {
	if g.limiter != nil && !g.limiter.Allow(tenantID) {
		log.Warn().Int("tenant_id", tenantID).Msg("inbound burst dropped")
		return nil
	}

	tenant, err := g.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil || !tenant.IsActive {
		log.Warn().Int("tenant_id", tenantID).Msg("inbound for unknown or inactive tenant dropped")
		return nil
	}

	conv, err := g.messages.EnsureConversation(ctx, tenantID, fromPhone)
	if err != nil {
		return err
	}
	if err := g.messages.Append(ctx, conv.ID, body, entities.DirectionInbound, false); err != nil {
		return err
	}

	reply, err := g.ai.GenerateResponse(ctx, body, tenant.BusinessType, tenant.Name)
	if err != nil {
		// The AI client degrades to a canned reply on its own; an
		// error here means even that was impossible.
		log.Error().Err(err).Int("tenant_id", tenantID).Msg("AI reply generation failed")
		return nil
	}

	result, err := g.send(ctx, tenantID, fromPhone, reply, true)
	if err != nil {
		return err
	}
	if result.Status != SendStatusSent {
		log.Info().Int("tenant_id", tenantID).Str("status", string(result.Status)).Msg("auto-reply not delivered")
	}
	return nil
}
