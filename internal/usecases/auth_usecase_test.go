package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neobot/internal/entities"
)

type mockAuthTenants struct {
	byEmail map[string]*entities.Tenant
	created []*entities.Tenant
}

func newMockAuthTenants() *mockAuthTenants {
	return &mockAuthTenants{byEmail: make(map[string]*entities.Tenant)}
}

func (m *mockAuthTenants) Create(ctx context.Context, t *entities.Tenant) error {
	t.ID = len(m.created) + 1
	m.created = append(m.created, t)
	m.byEmail[t.Email] = t
	return nil
}

func (m *mockAuthTenants) GetByEmail(ctx context.Context, email string) (*entities.Tenant, error) {
	return m.byEmail[email], nil
}

const testSecret = "unit-test-signing-secret-0123456789"

func TestRegisterSetsTrialFromPlan(t *testing.T) {
	store := newMockAuthTenants()
	auth := NewAuthUsecase(store, testSecret)

	tenant, err := auth.Register(context.Background(), "Chez Marie", "marie@example.com", "+237650000001", "s3cret-pass", "restaurant", entities.PlanStandard)
	require.NoError(t, err)

	assert.True(t, tenant.IsTrial)
	assert.Equal(t, 1500, tenant.MessagesLimit)
	require.NotNil(t, tenant.TrialEndsAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 5), *tenant.TrialEndsAt, time.Minute)
	assert.NotEqual(t, "s3cret-pass", tenant.PasswordHash, "password must be hashed")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newMockAuthTenants()
	auth := NewAuthUsecase(store, testSecret)

	_, err := auth.Register(context.Background(), "A", "dup@example.com", "", "password1", "", entities.PlanBasique)
	require.NoError(t, err)
	_, err = auth.Register(context.Background(), "B", "dup@example.com", "", "password2", "", entities.PlanBasique)
	require.Error(t, err)
}

func TestLoginIssuesTenantScopedToken(t *testing.T) {
	store := newMockAuthTenants()
	auth := NewAuthUsecase(store, testSecret)

	registered, err := auth.Register(context.Background(), "Chez Marie", "marie@example.com", "", "s3cret-pass", "restaurant", entities.PlanBasique)
	require.NoError(t, err)

	tokenString, tenant, err := auth.Login(context.Background(), "marie@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, tenant.ID)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(registered.ID), claims["tenant_id"])
	assert.Equal(t, "user", claims["role"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newMockAuthTenants()
	auth := NewAuthUsecase(store, testSecret)

	_, err := auth.Register(context.Background(), "Chez Marie", "marie@example.com", "", "s3cret-pass", "", entities.PlanBasique)
	require.NoError(t, err)

	_, _, err = auth.Login(context.Background(), "marie@example.com", "wrong")
	require.Error(t, err)
	_, _, err = auth.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	require.Error(t, err)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	store := newMockAuthTenants()
	auth := NewAuthUsecase(store, testSecret)

	require.NoError(t, auth.EnsureAdmin(context.Background(), "ops@example.com", "admin-pass-123"))
	require.NoError(t, auth.EnsureAdmin(context.Background(), "ops@example.com", "admin-pass-123"))

	require.Len(t, store.created, 1)
	assert.Equal(t, "admin", store.created[0].Role)
}
