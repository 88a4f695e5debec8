package repository

import (
	"context"
	"errors"

	"neobot/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entities.Payment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (tenant_id, reference, plan, amount_fcfa, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.TenantID, p.Reference, p.Plan, p.AmountFCFA, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return persistence("create payment", err)
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*entities.Payment, error) {
	var p entities.Payment
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, reference, plan, amount_fcfa, status, created_at, updated_at
		FROM payments WHERE reference = $1
	`, reference).Scan(&p.ID, &p.TenantID, &p.Reference, &p.Plan, &p.AmountFCFA,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get payment", err)
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, reference, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payments SET status = $2, updated_at = NOW() WHERE reference = $1
	`, reference, status)
	return persistence("update payment status", err)
}

func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID int) ([]entities.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, reference, plan, amount_fcfa, status, created_at, updated_at
		FROM payments WHERE tenant_id = $1 ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, persistence("list payments", err)
	}
	defer rows.Close()

	payments := []entities.Payment{}
	for rows.Next() {
		var p entities.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Reference, &p.Plan, &p.AmountFCFA,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, persistence("scan payment", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
