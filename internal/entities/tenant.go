package entities

import "time"

type PlanType string

const (
	PlanBasique  PlanType = "basique"
	PlanStandard PlanType = "standard"
	PlanPro      PlanType = "pro"
)

type Tenant struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	BusinessType  string     `json:"business_type"` // restaurant, boutique, service
	IsActive      bool       `json:"is_active"`
	Plan          PlanType   `json:"plan"`
	MessagesLimit int        `json:"messages_limit"` // billed monthly quota
	MessagesUsed  int        `json:"messages_used"`
	IsTrial       bool       `json:"is_trial"`
	TrialEndsAt   *time.Time `json:"trial_ends_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PlanConfig describes what a subscription tier includes.
type PlanConfig struct {
	Name          string   `json:"name"`
	PriceFCFA     int      `json:"price_fcfa"`
	MessagesLimit int      `json:"messages_limit"`
	TrialDays     int      `json:"trial_days"`
	Features      []string `json:"features"`
}

var planConfigs = map[PlanType]PlanConfig{
	PlanBasique: {
		Name:          "Basique",
		PriceFCFA:     20000,
		MessagesLimit: 1000,
		TrialDays:     3,
		Features:      []string{"WhatsApp QR", "Basic AI", "Email support"},
	},
	PlanStandard: {
		Name:          "Standard",
		PriceFCFA:     50000,
		MessagesLimit: 1500,
		TrialDays:     5,
		Features:      []string{"WhatsApp QR", "Advanced AI", "Priority support"},
	},
	PlanPro: {
		Name:          "Pro",
		PriceFCFA:     90000,
		MessagesLimit: 3000,
		TrialDays:     7,
		Features:      []string{"Multi-channel", "Full API", "Dedicated support"},
	},
}

// GetPlanConfig returns the configuration for the tenant's plan,
// falling back to Basique for unknown values.
func (t *Tenant) GetPlanConfig() PlanConfig {
	if cfg, ok := planConfigs[t.Plan]; ok {
		return cfg
	}
	return planConfigs[PlanBasique]
}

// ConfigForPlan looks up a plan configuration by type.
func ConfigForPlan(plan PlanType) (PlanConfig, bool) {
	cfg, ok := planConfigs[plan]
	return cfg, ok
}

// AllPlans returns the plan catalogue, cheapest first.
func AllPlans() []PlanConfig {
	return []PlanConfig{
		planConfigs[PlanBasique],
		planConfigs[PlanStandard],
		planConfigs[PlanPro],
	}
}
