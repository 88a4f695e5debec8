package interfaces

import (
	"context"
	"time"

	"neobot/internal/entities"
)

// Transport is the external WhatsApp delivery capability. The real
// implementation is a QR-based multi-device client; the core only depends
// on this surface.
type Transport interface {
	// GenerateSession produces a fresh opaque session token (the QR
	// payload) for the tenant.
	GenerateSession(ctx context.Context, tenantID int) (string, error)
	// Send delivers a text message through the tenant's live session.
	Send(ctx context.Context, tenantID int, to, body string) error
	// Probe reports whether the tenant's session is still alive.
	Probe(ctx context.Context, tenantID int) (bool, error)
}

// AIClient generates a reply for an inbound customer message.
type AIClient interface {
	GenerateResponse(ctx context.Context, message, businessType, businessName string) (string, error)
}

// Notifier is a fire-and-forget operator alert sink. Implementations log
// and swallow their own failures.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// SessionFields is the set of mutable session columns for an upsert.
type SessionFields struct {
	QRCode       string
	IsConnected  bool
	PhoneNumber  string
	ConnectedAt  *time.Time
	LastActivity *time.Time
}

// SessionStore persists one session record per tenant.
type SessionStore interface {
	Get(ctx context.Context, tenantID int) (*entities.Session, error)
	Upsert(ctx context.Context, tenantID int, fields SessionFields) error
}

// TenantStore reads tenant records and tracks billed usage; plan and
// status writes stay with the billing side.
type TenantStore interface {
	GetByID(ctx context.Context, id int) (*entities.Tenant, error)
	ListActive(ctx context.Context) ([]entities.Tenant, error)
	IncrementMessagesUsed(ctx context.Context, id int) error
}

// MessageStore appends to and counts the message log.
type MessageStore interface {
	EnsureConversation(ctx context.Context, tenantID int, customerPhone string) (*entities.Conversation, error)
	Append(ctx context.Context, conversationID int, content, direction string, isAI bool) error
	// CountOutboundBetween counts outbound rows for the tenant's
	// conversations in [from, to).
	CountOutboundBetween(ctx context.Context, tenantID int, from, to time.Time) (int, error)
}

// QuotaCache is an optional short-lived per-tenant counter cache.
type QuotaCache interface {
	Get(ctx context.Context, tenantID int) (count int, ok bool)
	Set(ctx context.Context, tenantID int, count int)
	Invalidate(ctx context.Context, tenantID int)
}
