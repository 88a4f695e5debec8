package repository

import (
	"context"
	"errors"

	"neobot/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantRepository struct {
	db *pgxpool.Pool
}

type TenantStats struct {
	TotalTenants  int `json:"total_tenants"`
	ActiveTenants int `json:"active_tenants"`
	TrialTenants  int `json:"trial_tenants"`
	AdminCount    int `json:"admin_count"`
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `id, name, email, phone, password_hash, role, business_type,
	is_active, plan, messages_limit, messages_used, is_trial, trial_ends_at, created_at`

func scanTenant(row pgx.Row) (*entities.Tenant, error) {
	var t entities.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.PasswordHash, &t.Role,
		&t.BusinessType, &t.IsActive, &t.Plan, &t.MessagesLimit, &t.MessagesUsed,
		&t.IsTrial, &t.TrialEndsAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) Create(ctx context.Context, t *entities.Tenant) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tenants (name, email, phone, password_hash, role, business_type,
			is_active, plan, messages_limit, messages_used, is_trial, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)
		RETURNING id, created_at
	`, t.Name, t.Email, t.Phone, t.PasswordHash, t.Role, t.BusinessType,
		t.IsActive, t.Plan, t.MessagesLimit, t.IsTrial, t.TrialEndsAt).
		Scan(&t.ID, &t.CreatedAt)
	return persistence("create tenant", err)
}

func (r *TenantRepository) GetByID(ctx context.Context, id int) (*entities.Tenant, error) {
	t, err := scanTenant(r.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get tenant", err)
	}
	return t, nil
}

func (r *TenantRepository) GetByEmail(ctx context.Context, email string) (*entities.Tenant, error) {
	t, err := scanTenant(r.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get tenant by email", err)
	}
	return t, nil
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]entities.Tenant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, persistence("list active tenants", err)
	}
	defer rows.Close()

	tenants := []entities.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, persistence("scan tenant", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) ListAll(ctx context.Context) ([]entities.Tenant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY id`)
	if err != nil {
		return nil, persistence("list tenants", err)
	}
	defer rows.Close()

	tenants := []entities.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, persistence("scan tenant", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) UpdateStatus(ctx context.Context, id int, isActive bool) error {
	_, err := r.db.Exec(ctx,
		"UPDATE tenants SET is_active = $2 WHERE id = $1", id, isActive)
	return persistence("update tenant status", err)
}

// ApplyPlan switches the tenant to a paid plan after a verified payment:
// new billed quota, usage reset, trial ended.
func (r *TenantRepository) ApplyPlan(ctx context.Context, id int, plan entities.PlanType, messagesLimit int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tenants SET
			plan = $2,
			messages_limit = $3,
			messages_used = 0,
			is_trial = FALSE,
			trial_ends_at = NULL
		WHERE id = $1
	`, id, plan, messagesLimit)
	return persistence("apply plan", err)
}

// IncrementMessagesUsed bumps the billed monthly counter. The hidden daily
// ceiling is derived from the message log instead and never stored here.
func (r *TenantRepository) IncrementMessagesUsed(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx,
		"UPDATE tenants SET messages_used = messages_used + 1 WHERE id = $1", id)
	return persistence("increment messages used", err)
}

func (r *TenantRepository) GetStats(ctx context.Context) (*TenantStats, error) {
	var s TenantStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE is_trial),
		       COUNT(*) FILTER (WHERE role = 'admin')
		FROM tenants
	`).Scan(&s.TotalTenants, &s.ActiveTenants, &s.TrialTenants, &s.AdminCount)
	if err != nil {
		return nil, persistence("tenant stats", err)
	}
	return &s, nil
}
