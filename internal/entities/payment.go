package entities

import "time"

const (
	PaymentPending  = "pending"
	PaymentComplete = "complete"
	PaymentFailed   = "failed"
)

type Payment struct {
	ID         int       `json:"id"`
	TenantID   int       `json:"tenant_id"`
	Reference  string    `json:"reference"`
	Plan       PlanType  `json:"plan"`
	AmountFCFA int       `json:"amount_fcfa"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
