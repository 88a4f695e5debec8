package repository

import (
	"context"
	"errors"

	"neobot/internal/entities"
	"neobot/internal/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository stores one WhatsApp session row per tenant. The
// UNIQUE(tenant_id) constraint plus ON CONFLICT upsert keeps concurrent
// writers from creating duplicate rows; ordering between writers is the
// lifecycle manager's job.
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Get(ctx context.Context, tenantID int) (*entities.Session, error) {
	var s entities.Session
	var qr, phone *string
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, qr_code, is_connected, phone_number,
		       connected_at, last_activity, created_at, updated_at
		FROM whatsapp_sessions WHERE tenant_id = $1
	`, tenantID).Scan(&s.ID, &s.TenantID, &qr, &s.IsConnected, &phone,
		&s.ConnectedAt, &s.LastActivity, &s.CreatedAt, &s.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // No session yet
	}
	if err != nil {
		return nil, persistence("get session", err)
	}
	if qr != nil {
		s.QRCode = *qr
	}
	if phone != nil {
		s.PhoneNumber = *phone
	}
	return &s, nil
}

func (r *SessionRepository) Upsert(ctx context.Context, tenantID int, fields interfaces.SessionFields) error {
	qr := nullable(fields.QRCode)
	phone := nullable(fields.PhoneNumber)

	_, err := r.db.Exec(ctx, `
		INSERT INTO whatsapp_sessions
			(tenant_id, qr_code, is_connected, phone_number, connected_at, last_activity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			qr_code       = EXCLUDED.qr_code,
			is_connected  = EXCLUDED.is_connected,
			phone_number  = EXCLUDED.phone_number,
			connected_at  = EXCLUDED.connected_at,
			last_activity = EXCLUDED.last_activity,
			updated_at    = NOW()
	`, tenantID, qr, fields.IsConnected, phone, fields.ConnectedAt, fields.LastActivity)
	return persistence("upsert session", err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
