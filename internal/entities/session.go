package entities

import "time"

// ConnectionState is the lifecycle state derived from a session record.
type ConnectionState string

const (
	StateNoSession    ConnectionState = "no_session"
	StateAwaitingScan ConnectionState = "awaiting_scan"
	StateConnected    ConnectionState = "connected"
)

// Session is a tenant's WhatsApp link state. At most one row per tenant
// (UNIQUE on tenant_id); the row is mutated, never deleted.
//
// Invariant: either QRCode is set with IsConnected=false and PhoneNumber
// empty (awaiting scan), or QRCode is empty with IsConnected=true and
// PhoneNumber set (connected).
type Session struct {
	ID           int        `json:"id"`
	TenantID     int        `json:"tenant_id"`
	QRCode       string     `json:"qr_code,omitempty"`
	IsConnected  bool       `json:"is_connected"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	ConnectedAt  *time.Time `json:"connected_at,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// State maps the stored flags onto the lifecycle state machine.
func (s *Session) State() ConnectionState {
	if s == nil {
		return StateNoSession
	}
	if s.IsConnected {
		return StateConnected
	}
	return StateAwaitingScan
}
