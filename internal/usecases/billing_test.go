package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"
)

type mockBillingTenants struct {
	tenants      map[int]*entities.Tenant
	appliedPlan  entities.PlanType
	appliedLimit int
	appliedTo    int
}

func (m *mockBillingTenants) GetByID(ctx context.Context, id int) (*entities.Tenant, error) {
	return m.tenants[id], nil
}

func (m *mockBillingTenants) ApplyPlan(ctx context.Context, id int, plan entities.PlanType, messagesLimit int) error {
	m.appliedTo, m.appliedPlan, m.appliedLimit = id, plan, messagesLimit
	return nil
}

type mockBillingPayments struct {
	created  []*entities.Payment
	statuses map[string]string
}

func newMockBillingPayments() *mockBillingPayments {
	return &mockBillingPayments{statuses: make(map[string]string)}
}

func (m *mockBillingPayments) Create(ctx context.Context, p *entities.Payment) error {
	m.created = append(m.created, p)
	m.statuses[p.Reference] = p.Status
	return nil
}

func (m *mockBillingPayments) GetByReference(ctx context.Context, reference string) (*entities.Payment, error) {
	for _, p := range m.created {
		if p.Reference == reference {
			copied := *p
			copied.Status = m.statuses[reference]
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockBillingPayments) UpdateStatus(ctx context.Context, reference, status string) error {
	m.statuses[reference] = status
	return nil
}

func (m *mockBillingPayments) ListByTenant(ctx context.Context, tenantID int) ([]entities.Payment, error) {
	var out []entities.Payment
	for _, p := range m.created {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockPaymentGateway struct {
	createErr    error
	verifyStatus string
	verifyCalls  int
	lastAmount   int
}

func (m *mockPaymentGateway) CreatePayment(ctx context.Context, amountFCFA int, email, phone, reference, description string) (*infrastructure.PaymentLink, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.lastAmount = amountFCFA
	return &infrastructure.PaymentLink{PaymentURL: "https://pay.notchpay.co/" + reference, Reference: reference}, nil
}

func (m *mockPaymentGateway) VerifyPayment(ctx context.Context, reference string) (*infrastructure.PaymentStatus, error) {
	m.verifyCalls++
	return &infrastructure.PaymentStatus{Status: m.verifyStatus}, nil
}

func newBillingFixture() (*BillingService, *mockBillingTenants, *mockBillingPayments, *mockPaymentGateway) {
	tenants := &mockBillingTenants{tenants: map[int]*entities.Tenant{
		1: {ID: 1, Name: "Chez Marie", Email: "marie@example.com", Phone: "+237650000001", Plan: entities.PlanBasique},
	}}
	payments := newMockBillingPayments()
	gateway := &mockPaymentGateway{verifyStatus: "complete"}
	return NewBillingService(tenants, payments, gateway), tenants, payments, gateway
}

func TestInitiateUpgradeCreatesPendingPayment(t *testing.T) {
	billing, _, payments, gateway := newBillingFixture()

	link, err := billing.InitiateUpgrade(context.Background(), 1, entities.PlanStandard)
	require.NoError(t, err)

	assert.Contains(t, link.PaymentURL, "https://pay.notchpay.co/")
	assert.Equal(t, 50000, gateway.lastAmount)

	require.Len(t, payments.created, 1)
	p := payments.created[0]
	assert.Equal(t, entities.PaymentPending, p.Status)
	assert.Equal(t, entities.PlanStandard, p.Plan)
	assert.Equal(t, 50000, p.AmountFCFA)
}

func TestInitiateUpgradeRejectsUnknownPlan(t *testing.T) {
	billing, _, payments, _ := newBillingFixture()

	_, err := billing.InitiateUpgrade(context.Background(), 1, "platine")
	require.Error(t, err)
	assert.Empty(t, payments.created)
}

func TestInitiateUpgradeGatewayFailureCreatesNothing(t *testing.T) {
	billing, _, payments, gateway := newBillingFixture()
	gateway.createErr = errors.New("provider down")

	_, err := billing.InitiateUpgrade(context.Background(), 1, entities.PlanPro)
	require.Error(t, err)
	assert.Empty(t, payments.created)
}

func TestConfirmPaymentAppliesPlan(t *testing.T) {
	billing, tenants, payments, _ := newBillingFixture()

	link, err := billing.InitiateUpgrade(context.Background(), 1, entities.PlanPro)
	require.NoError(t, err)

	require.NoError(t, billing.ConfirmPayment(context.Background(), link.Reference))

	assert.Equal(t, 1, tenants.appliedTo)
	assert.Equal(t, entities.PlanPro, tenants.appliedPlan)
	assert.Equal(t, 3000, tenants.appliedLimit)
	assert.Equal(t, entities.PaymentComplete, payments.statuses[link.Reference])
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	billing, tenants, _, gateway := newBillingFixture()

	link, err := billing.InitiateUpgrade(context.Background(), 1, entities.PlanPro)
	require.NoError(t, err)

	require.NoError(t, billing.ConfirmPayment(context.Background(), link.Reference))
	require.NoError(t, billing.ConfirmPayment(context.Background(), link.Reference))

	assert.Equal(t, 1, gateway.verifyCalls, "a settled reference must not be re-verified")
	assert.Equal(t, entities.PlanPro, tenants.appliedPlan)
}

func TestConfirmPaymentFailedStatus(t *testing.T) {
	billing, tenants, payments, gateway := newBillingFixture()
	gateway.verifyStatus = "failed"

	link, err := billing.InitiateUpgrade(context.Background(), 1, entities.PlanStandard)
	require.NoError(t, err)

	require.NoError(t, billing.ConfirmPayment(context.Background(), link.Reference))
	assert.Equal(t, entities.PaymentFailed, payments.statuses[link.Reference])
	assert.Zero(t, tenants.appliedTo)
}

func TestConfirmPaymentUnknownReference(t *testing.T) {
	billing, _, _, _ := newBillingFixture()
	err := billing.ConfirmPayment(context.Background(), "neobot-9-9")
	require.Error(t, err)
}
