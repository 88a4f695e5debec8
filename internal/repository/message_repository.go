package repository

import (
	"context"
	"time"

	"neobot/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

type DailyUsage struct {
	Date             time.Time `json:"date"`
	MessagesSent     int       `json:"messages_sent"`
	MessagesReceived int       `json:"messages_received"`
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// EnsureConversation returns the tenant's conversation with the customer,
// creating it on first contact.
func (r *MessageRepository) EnsureConversation(ctx context.Context, tenantID int, customerPhone string) (*entities.Conversation, error) {
	var c entities.Conversation
	var name *string
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversations (tenant_id, customer_phone, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (tenant_id, customer_phone) DO UPDATE SET
			last_message_at = NOW()
		RETURNING id, tenant_id, customer_phone, customer_name, status, created_at, last_message_at
	`, tenantID, customerPhone).
		Scan(&c.ID, &c.TenantID, &c.CustomerPhone, &name, &c.Status, &c.CreatedAt, &c.LastMessageAt)
	if err != nil {
		return nil, persistence("ensure conversation", err)
	}
	if name != nil {
		c.CustomerName = *name
	}
	return &c, nil
}

func (r *MessageRepository) Append(ctx context.Context, conversationID int, content, direction string, isAI bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (conversation_id, content, direction, is_ai, message_type)
		VALUES ($1, $2, $3, $4, 'text')
	`, conversationID, content, direction, isAI)
	return persistence("append message", err)
}

// CountOutboundBetween counts outbound log rows for the tenant in [from, to).
// The log is the sole source of truth for daily usage; there is no stored
// counter that could drift from it.
func (r *MessageRepository) CountOutboundBetween(ctx context.Context, tenantID int, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.tenant_id = $1
		  AND m.direction = $2
		  AND m.created_at >= $3
		  AND m.created_at < $4
	`, tenantID, entities.DirectionOutbound, from, to).Scan(&count)
	if err != nil {
		return 0, persistence("count outbound messages", err)
	}
	return count, nil
}

func (r *MessageRepository) ListConversations(ctx context.Context, tenantID int) ([]entities.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, customer_phone, customer_name, status, created_at, last_message_at
		FROM conversations
		WHERE tenant_id = $1
		ORDER BY last_message_at DESC
	`, tenantID)
	if err != nil {
		return nil, persistence("list conversations", err)
	}
	defer rows.Close()

	convs := []entities.Conversation{}
	for rows.Next() {
		var c entities.Conversation
		var name *string
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CustomerPhone, &name, &c.Status, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, persistence("scan conversation", err)
		}
		if name != nil {
			c.CustomerName = *name
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *MessageRepository) ListMessages(ctx context.Context, tenantID, conversationID int) ([]entities.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.conversation_id, m.content, m.direction, m.is_ai, m.message_type, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.tenant_id = $1 AND m.conversation_id = $2
		ORDER BY m.created_at ASC
	`, tenantID, conversationID)
	if err != nil {
		return nil, persistence("list messages", err)
	}
	defer rows.Close()

	msgs := []entities.Message{}
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.Direction, &m.IsAI, &m.MessageType, &m.CreatedAt); err != nil {
			return nil, persistence("scan message", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetUsageHistory aggregates the last N days of traffic for a tenant's
// dashboard chart.
func (r *MessageRepository) GetUsageHistory(ctx context.Context, tenantID, days int) ([]DailyUsage, error) {
	start := time.Now().AddDate(0, 0, -days)
	rows, err := r.db.Query(ctx, `
		SELECT DATE(m.created_at),
		       COUNT(*) FILTER (WHERE m.direction = 'out'),
		       COUNT(*) FILTER (WHERE m.direction = 'in')
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.tenant_id = $1 AND m.created_at >= $2
		GROUP BY DATE(m.created_at)
		ORDER BY DATE(m.created_at) ASC
	`, tenantID, start)
	if err != nil {
		return nil, persistence("usage history", err)
	}
	defer rows.Close()

	usage := []DailyUsage{}
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.MessagesSent, &u.MessagesReceived); err != nil {
			return nil, persistence("scan usage", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
