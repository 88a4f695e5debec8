package usecases

import (
	"context"
	"fmt"
	"time"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"
	"neobot/internal/interfaces"

	"github.com/rs/zerolog/log"
)

// ConnectionStatus is the state-specific payload returned to the
// dashboard. Warning is a soft UX signal derived from usage thresholds and
// never states the numeric ceiling or a remaining count.
type ConnectionStatus struct {
	State          entities.ConnectionState `json:"state"`
	QRCode         string                   `json:"qr_code,omitempty"`
	PhoneNumber    string                   `json:"phone_number,omitempty"`
	ConnectedSince *time.Time               `json:"connected_since,omitempty"`
	LastActivity   *time.Time               `json:"last_activity,omitempty"`
	Warning        string                   `json:"warning,omitempty"`
	UsageIndicator string                   `json:"usage_indicator,omitempty"` // normal / high
}

// ConnectionLifecycle drives the per-tenant session state machine:
// NO_SESSION -> AWAITING_SCAN -> CONNECTED, with CONNECTED ->
// AWAITING_SCAN on a failed health probe. It is the only writer of
// session connection fields; all transitions for one tenant are
// serialized through the tenant locker.
type ConnectionLifecycle struct {
	sessions  interfaces.SessionStore
	transport interfaces.Transport
	quota     *QuotaCounter
	notifier  interfaces.Notifier
	locks     *infrastructure.TenantLocker

	now func() time.Time
}

func NewConnectionLifecycle(sessions interfaces.SessionStore, transport interfaces.Transport, quota *QuotaCounter, notifier interfaces.Notifier) *ConnectionLifecycle {
	return &ConnectionLifecycle{
		sessions:  sessions,
		transport: transport,
		quota:     quota,
		notifier:  notifier,
		locks:     infrastructure.NewTenantLocker(),
		now:       time.Now,
	}
}

// RequestConnection issues a fresh QR payload for the tenant. Idempotent
// while connected: the existing link is returned untouched and no new QR
// is generated.
func (l *ConnectionLifecycle) RequestConnection(ctx context.Context, tenantID int) (*ConnectionStatus, error) {
	l.locks.Lock(tenantID)
	defer l.locks.Unlock(tenantID)

	sess, err := l.sessions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if sess != nil && sess.IsConnected {
		return &ConnectionStatus{
			State:          entities.StateConnected,
			PhoneNumber:    sess.PhoneNumber,
			ConnectedSince: sess.ConnectedAt,
			LastActivity:   sess.LastActivity,
		}, nil
	}

	// The upsert only commits once the transport produced a token; a
	// failed generation leaves the stored state untouched.
	token, err := l.transport.GenerateSession(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	var lastActivity *time.Time
	if sess != nil {
		lastActivity = sess.LastActivity
	}
	if err := l.sessions.Upsert(ctx, tenantID, interfaces.SessionFields{
		QRCode:       token,
		IsConnected:  false,
		LastActivity: lastActivity,
	}); err != nil {
		return nil, err
	}

	return &ConnectionStatus{
		State:  entities.StateAwaitingScan,
		QRCode: token,
	}, nil
}

// ConfirmScan transitions AWAITING_SCAN -> CONNECTED after the device
// scanned the QR. Scan confirmation without a prior QR request is client
// misuse.
func (l *ConnectionLifecycle) ConfirmScan(ctx context.Context, tenantID int, phoneNumber string) error {
	if phoneNumber == "" {
		return fmt.Errorf("%w: missing phone number", ErrInvalidState)
	}

	l.locks.Lock(tenantID)
	defer l.locks.Unlock(tenantID)

	sess, err := l.sessions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("%w: scan confirmed with no pending session", ErrInvalidState)
	}

	now := l.now()
	if err := l.sessions.Upsert(ctx, tenantID, interfaces.SessionFields{
		IsConnected:  true,
		PhoneNumber:  phoneNumber,
		ConnectedAt:  &now,
		LastActivity: &now,
	}); err != nil {
		return err
	}

	log.Info().Int("tenant_id", tenantID).Str("phone", phoneNumber).Msg("whatsapp session connected")
	if l.notifier != nil {
		l.notifier.Notify(ctx, fmt.Sprintf("Tenant %d connected WhatsApp (%s)", tenantID, phoneNumber))
	}
	return nil
}

// CheckHealth probes the transport for a live session and downgrades the
// state on a dead link. This is the only internal path that flips
// connected=false; it is idempotent while already disconnected.
func (l *ConnectionLifecycle) CheckHealth(ctx context.Context, tenantID int) error {
	l.locks.Lock(tenantID)
	defer l.locks.Unlock(tenantID)

	sess, err := l.sessions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if sess == nil || !sess.IsConnected {
		return nil
	}

	alive, err := l.transport.Probe(ctx, tenantID)
	if err != nil {
		// Inconclusive probe: keep the current state rather than
		// flapping on transient transport failures.
		return fmt.Errorf("probe tenant %d: %w", tenantID, err)
	}
	if alive {
		return nil
	}

	now := l.now()
	if err := l.sessions.Upsert(ctx, tenantID, interfaces.SessionFields{
		IsConnected:  false,
		LastActivity: &now,
	}); err != nil {
		return err
	}

	log.Warn().Int("tenant_id", tenantID).Msg("whatsapp session disconnect detected")
	if l.notifier != nil {
		l.notifier.Notify(ctx, fmt.Sprintf("Tenant %d WhatsApp session dropped", tenantID))
	}
	return nil
}

// TouchActivity records outbound traffic on the session. Session writes
// stay inside the lifecycle manager so they serialize with transitions.
func (l *ConnectionLifecycle) TouchActivity(ctx context.Context, tenantID int) error {
	l.locks.Lock(tenantID)
	defer l.locks.Unlock(tenantID)

	sess, err := l.sessions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if sess == nil || !sess.IsConnected {
		return nil
	}

	now := l.now()
	return l.sessions.Upsert(ctx, tenantID, interfaces.SessionFields{
		QRCode:       sess.QRCode,
		IsConnected:  true,
		PhoneNumber:  sess.PhoneNumber,
		ConnectedAt:  sess.ConnectedAt,
		LastActivity: &now,
	})
}

// Status reports the tenant's link state plus a state-specific payload.
func (l *ConnectionLifecycle) Status(ctx context.Context, tenantID int) (*ConnectionStatus, error) {
	sess, err := l.sessions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return &ConnectionStatus{State: entities.StateNoSession}, nil
	}

	if !sess.IsConnected {
		return &ConnectionStatus{
			State:  entities.StateAwaitingScan,
			QRCode: sess.QRCode,
		}, nil
	}

	count, err := l.quota.DailyOutboundCount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	percent := l.quota.UsagePercent(count)

	// Soft signals only; the thresholds are internal and the text must
	// not leak the ceiling or a remaining count.
	warning := ""
	indicator := "normal"
	switch {
	case percent > 90:
		warning = "Intensive usage detected. The service may be temporarily slowed."
		indicator = "high"
	case percent > 70:
		warning = "High activity today. Optimal performance guaranteed."
		indicator = "high"
	}

	return &ConnectionStatus{
		State:          entities.StateConnected,
		PhoneNumber:    sess.PhoneNumber,
		ConnectedSince: sess.ConnectedAt,
		LastActivity:   sess.LastActivity,
		Warning:        warning,
		UsageIndicator: indicator,
	}, nil
}
