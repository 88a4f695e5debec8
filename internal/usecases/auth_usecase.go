package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neobot/internal/entities"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type authTenants interface {
	Create(ctx context.Context, t *entities.Tenant) error
	GetByEmail(ctx context.Context, email string) (*entities.Tenant, error)
}

type AuthUsecase struct {
	tenants   authTenants
	jwtSecret []byte
	now       func() time.Time
}

func NewAuthUsecase(tenants authTenants, secret string) *AuthUsecase {
	return &AuthUsecase{
		tenants:   tenants,
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
}

// Register creates a tenant on the chosen plan with its trial period
// already running.
func (uc *AuthUsecase) Register(ctx context.Context, name, email, phone, password, businessType string, plan entities.PlanType) (*entities.Tenant, error) {
	existing, err := uc.tenants.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	cfg, ok := entities.ConfigForPlan(plan)
	if !ok {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	trialEnds := uc.now().AddDate(0, 0, cfg.TrialDays)
	tenant := &entities.Tenant{
		Name:          name,
		Email:         email,
		Phone:         phone,
		PasswordHash:  string(hashed),
		Role:          "user",
		BusinessType:  businessType,
		IsActive:      true,
		Plan:          plan,
		MessagesLimit: cfg.MessagesLimit,
		IsTrial:       true,
		TrialEndsAt:   &trialEnds,
	}
	if err := uc.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (string, *entities.Tenant, error) {
	tenant, err := uc.tenants.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if tenant == nil {
		return "", nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": tenant.ID,
		"role":      tenant.Role,
		"exp":       uc.now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %v", err)
	}
	return tokenString, tenant, nil
}

// EnsureAdmin creates the operator account on first startup.
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := uc.tenants.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.tenants.Create(ctx, &entities.Tenant{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         "admin",
		IsActive:     true,
		Plan:         entities.PlanPro,
	})
}
