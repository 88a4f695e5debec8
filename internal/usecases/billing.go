package usecases

import (
	"context"
	"fmt"
	"time"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"

	"github.com/rs/zerolog/log"
)

type billingTenants interface {
	GetByID(ctx context.Context, id int) (*entities.Tenant, error)
	ApplyPlan(ctx context.Context, id int, plan entities.PlanType, messagesLimit int) error
}

type billingPayments interface {
	Create(ctx context.Context, p *entities.Payment) error
	GetByReference(ctx context.Context, reference string) (*entities.Payment, error)
	UpdateStatus(ctx context.Context, reference, status string) error
	ListByTenant(ctx context.Context, tenantID int) ([]entities.Payment, error)
}

type paymentGateway interface {
	CreatePayment(ctx context.Context, amountFCFA int, email, phone, reference, description string) (*infrastructure.PaymentLink, error)
	VerifyPayment(ctx context.Context, reference string) (*infrastructure.PaymentStatus, error)
}

// BillingService handles plan upgrades through the payment provider.
type BillingService struct {
	tenants  billingTenants
	payments billingPayments
	gateway  paymentGateway
	now      func() time.Time
}

func NewBillingService(tenants billingTenants, payments billingPayments, gateway paymentGateway) *BillingService {
	return &BillingService{tenants: tenants, payments: payments, gateway: gateway, now: time.Now}
}

// InitiateUpgrade creates a pending payment and returns the hosted
// checkout URL for the requested plan.
func (b *BillingService) InitiateUpgrade(ctx context.Context, tenantID int, plan entities.PlanType) (*infrastructure.PaymentLink, error) {
	cfg, ok := entities.ConfigForPlan(plan)
	if !ok {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	tenant, err := b.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	reference := fmt.Sprintf("neobot-%d-%d", tenantID, b.now().Unix())
	description := fmt.Sprintf("NeoBot %s plan", cfg.Name)

	link, err := b.gateway.CreatePayment(ctx, cfg.PriceFCFA, tenant.Email, tenant.Phone, reference, description)
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	if err := b.payments.Create(ctx, &entities.Payment{
		TenantID:   tenantID,
		Reference:  reference,
		Plan:       plan,
		AmountFCFA: cfg.PriceFCFA,
		Status:     entities.PaymentPending,
	}); err != nil {
		return nil, err
	}

	log.Info().Int("tenant_id", tenantID).Str("plan", string(plan)).Str("reference", reference).Msg("upgrade initiated")
	return link, nil
}

// ConfirmPayment verifies a payment reference with the provider and, on
// success, applies the purchased plan. Called from the provider webhook
// and from the client-side return URL, so it must tolerate repeats.
func (b *BillingService) ConfirmPayment(ctx context.Context, reference string) error {
	payment, err := b.payments.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if payment == nil {
		return fmt.Errorf("unknown payment reference %q", reference)
	}
	if payment.Status == entities.PaymentComplete {
		return nil
	}

	status, err := b.gateway.VerifyPayment(ctx, reference)
	if err != nil {
		return fmt.Errorf("verifying payment: %w", err)
	}

	switch status.Status {
	case "complete":
		cfg, ok := entities.ConfigForPlan(payment.Plan)
		if !ok {
			return fmt.Errorf("payment %q references unknown plan %q", reference, payment.Plan)
		}
		if err := b.tenants.ApplyPlan(ctx, payment.TenantID, payment.Plan, cfg.MessagesLimit); err != nil {
			return err
		}
		if err := b.payments.UpdateStatus(ctx, reference, entities.PaymentComplete); err != nil {
			return err
		}
		log.Info().Int("tenant_id", payment.TenantID).Str("plan", string(payment.Plan)).Msg("plan upgrade applied")
	case "failed", "canceled", "expired":
		if err := b.payments.UpdateStatus(ctx, reference, entities.PaymentFailed); err != nil {
			return err
		}
		log.Warn().Str("reference", reference).Str("provider_status", status.Status).Msg("payment not completed")
	default:
		log.Info().Str("reference", reference).Str("provider_status", status.Status).Msg("payment still pending")
	}
	return nil
}

// PaymentHistory lists a tenant's payments, newest first.
func (b *BillingService) PaymentHistory(ctx context.Context, tenantID int) ([]entities.Payment, error) {
	return b.payments.ListByTenant(ctx, tenantID)
}

// Plans returns the purchasable plan catalogue.
func (b *BillingService) Plans() []entities.PlanConfig {
	return entities.AllPlans()
}
