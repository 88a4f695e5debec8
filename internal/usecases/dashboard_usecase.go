package usecases

import (
	"context"

	"neobot/internal/entities"
	"neobot/internal/repository"
)

// QuotaStatus is the billed monthly quota view shown to the tenant.
// Independent of the daily traffic accounting.
type QuotaStatus struct {
	Plan          string  `json:"plan"`
	MessagesUsed  int     `json:"messages_used"`
	MessagesLimit int     `json:"messages_limit"`
	UsagePercent  float64 `json:"usage_percent"`
	IsTrial       bool    `json:"is_trial"`
}

type DashboardUsecase struct {
	tenants   *repository.TenantRepository
	messages  *repository.MessageRepository
	lifecycle *ConnectionLifecycle
	alerts    *AlertsService
}

func NewDashboardUsecase(
	tenants *repository.TenantRepository,
	messages *repository.MessageRepository,
	lifecycle *ConnectionLifecycle,
	alerts *AlertsService,
) *DashboardUsecase {
	return &DashboardUsecase{
		tenants:   tenants,
		messages:  messages,
		lifecycle: lifecycle,
		alerts:    alerts,
	}
}

func (u *DashboardUsecase) Quota(ctx context.Context, tenantID int) (*QuotaStatus, error) {
	tenant, err := u.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	var pct float64
	if tenant.MessagesLimit > 0 {
		pct = float64(tenant.MessagesUsed) / float64(tenant.MessagesLimit) * 100
	}
	return &QuotaStatus{
		Plan:          string(tenant.Plan),
		MessagesUsed:  tenant.MessagesUsed,
		MessagesLimit: tenant.MessagesLimit,
		UsagePercent:  pct,
		IsTrial:       tenant.IsTrial,
	}, nil
}

func (u *DashboardUsecase) UsageHistory(ctx context.Context, tenantID, days int) ([]repository.DailyUsage, error) {
	if days <= 0 || days > 90 {
		days = 7
	}
	return u.messages.GetUsageHistory(ctx, tenantID, days)
}

func (u *DashboardUsecase) Conversations(ctx context.Context, tenantID int) ([]entities.Conversation, error) {
	return u.messages.ListConversations(ctx, tenantID)
}

func (u *DashboardUsecase) Messages(ctx context.Context, tenantID, conversationID int) ([]entities.Message, error) {
	return u.messages.ListMessages(ctx, tenantID, conversationID)
}

// Alerts assembles the tenant's dashboard alerts from billing state and
// the live session.
func (u *DashboardUsecase) Alerts(ctx context.Context, tenantID int) ([]Alert, error) {
	tenant, err := u.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	status, err := u.lifecycle.Status(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	connected := status.State == entities.StateConnected
	return u.alerts.ForTenant(tenant, connected), nil
}
