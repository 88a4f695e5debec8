package entities

import "time"

const (
	DirectionInbound  = "in"
	DirectionOutbound = "out"
)

type Conversation struct {
	ID            int       `json:"id"`
	TenantID      int       `json:"tenant_id"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerName  string    `json:"customer_name,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Message is an append-only log row. The quota counter derives today's
// outbound count from these rows; there is no separate stored counter.
type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	Content        string    `json:"content"`
	Direction      string    `json:"direction"` // in / out
	IsAI           bool      `json:"is_ai"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
}
