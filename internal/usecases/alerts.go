package usecases

import (
	"fmt"
	"sort"
	"time"

	"neobot/internal/entities"
)

type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertDanger  AlertType = "danger"
	AlertInfo    AlertType = "info"
)

type Alert struct {
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Action    string    `json:"action,omitempty"`
	ActionURL string    `json:"action_url,omitempty"`
	Priority  int       `json:"priority"`
}

// AlertsService derives dashboard alerts from a tenant's billed usage,
// trial clock and session state. It holds no state of its own.
type AlertsService struct {
	now func() time.Time
}

func NewAlertsService() *AlertsService {
	return &AlertsService{now: time.Now}
}

// ForTenant builds the alert list for one tenant, highest priority first.
func (s *AlertsService) ForTenant(tenant *entities.Tenant, connected bool) []Alert {
	var alerts []Alert
	alerts = append(alerts, s.quotaAlerts(tenant)...)
	alerts = append(alerts, s.trialAlerts(tenant)...)
	if !connected {
		alerts = append(alerts, Alert{
			Type:      AlertDanger,
			Title:     "WhatsApp disconnected",
			Message:   "Your bot is offline. Customers are not receiving replies.",
			Action:    "Reconnect",
			ActionURL: "/api/whatsapp/connect",
			Priority:  1,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority < alerts[j].Priority
	})
	return alerts
}

// PriorityAlerts returns at most n alerts, highest priority first.
func (s *AlertsService) PriorityAlerts(tenant *entities.Tenant, connected bool, n int) []Alert {
	alerts := s.ForTenant(tenant, connected)
	if len(alerts) > n {
		alerts = alerts[:n]
	}
	return alerts
}

func (s *AlertsService) quotaAlerts(tenant *entities.Tenant) []Alert {
	if tenant.MessagesLimit <= 0 {
		return nil
	}
	pct := float64(tenant.MessagesUsed) / float64(tenant.MessagesLimit) * 100

	switch {
	case pct >= 100:
		return []Alert{{
			Type:      AlertDanger,
			Title:     "Plan quota exhausted",
			Message:   fmt.Sprintf("You have used all %d messages in your plan. Upgrade to keep replying to customers.", tenant.MessagesLimit),
			Action:    "Upgrade",
			ActionURL: "/api/billing/upgrade",
			Priority:  1,
		}}
	case pct >= 90:
		return []Alert{{
			Type:      AlertDanger,
			Title:     "Plan quota almost exhausted",
			Message:   fmt.Sprintf("%d of %d messages used (%.0f%%).", tenant.MessagesUsed, tenant.MessagesLimit, pct),
			Action:    "Upgrade",
			ActionURL: "/api/billing/upgrade",
			Priority:  2,
		}}
	case pct >= 75:
		return []Alert{{
			Type:     AlertWarning,
			Title:    "Plan quota running low",
			Message:  fmt.Sprintf("%d of %d messages used (%.0f%%).", tenant.MessagesUsed, tenant.MessagesLimit, pct),
			Priority: 3,
		}}
	}
	return nil
}

func (s *AlertsService) trialAlerts(tenant *entities.Tenant) []Alert {
	if !tenant.IsTrial || tenant.TrialEndsAt == nil {
		return nil
	}
	left := tenant.TrialEndsAt.Sub(s.now())
	daysLeft := int(left.Hours() / 24)

	switch {
	case left <= 0:
		return []Alert{{
			Type:      AlertDanger,
			Title:     "Trial expired",
			Message:   "Your trial period has ended. Choose a plan to keep your bot running.",
			Action:    "Choose a plan",
			ActionURL: "/api/billing/plans",
			Priority:  1,
		}}
	case daysLeft <= 1:
		return []Alert{{
			Type:      AlertDanger,
			Title:     "Trial ends tomorrow",
			Message:   "Your trial ends in less than a day. Choose a plan to avoid interruption.",
			Action:    "Choose a plan",
			ActionURL: "/api/billing/plans",
			Priority:  2,
		}}
	case daysLeft <= 3:
		return []Alert{{
			Type:      AlertWarning,
			Title:     "Trial ending soon",
			Message:   fmt.Sprintf("Your trial ends in %d days.", daysLeft),
			Action:    "Choose a plan",
			ActionURL: "/api/billing/plans",
			Priority:  3,
		}}
	}
	return []Alert{{
		Type:     AlertInfo,
		Title:    "Trial active",
		Message:  fmt.Sprintf("%d days left in your trial.", daysLeft),
		Priority: 5,
	}}
}
