package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neobot/internal/entities"
)

func tenantWithUsage(used, limit int) *entities.Tenant {
	return &entities.Tenant{
		ID:            1,
		Name:          "Chez Marie",
		Plan:          entities.PlanBasique,
		MessagesUsed:  used,
		MessagesLimit: limit,
		IsActive:      true,
	}
}

func TestQuotaAlertThresholds(t *testing.T) {
	s := NewAlertsService()

	tests := []struct {
		name     string
		used     int
		wantType AlertType
		wantAny  bool
	}{
		{"low usage", 100, "", false},
		{"below advisory", 740, "", false},
		{"warning band", 750, AlertWarning, true},
		{"danger band", 900, AlertDanger, true},
		{"exhausted", 1000, AlertDanger, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := s.ForTenant(tenantWithUsage(tt.used, 1000), true)
			if !tt.wantAny {
				assert.Empty(t, alerts)
				return
			}
			require.NotEmpty(t, alerts)
			assert.Equal(t, tt.wantType, alerts[0].Type)
		})
	}
}

func TestDisconnectedAlertOutranksQuotaWarning(t *testing.T) {
	s := NewAlertsService()

	alerts := s.ForTenant(tenantWithUsage(800, 1000), false)
	require.Len(t, alerts, 2)
	assert.Equal(t, "WhatsApp disconnected", alerts[0].Title)
	assert.Equal(t, AlertDanger, alerts[0].Type)
}

func TestTrialAlerts(t *testing.T) {
	s := NewAlertsService()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	tests := []struct {
		name      string
		endsIn    time.Duration
		wantType  AlertType
		wantTitle string
	}{
		{"expired", -time.Hour, AlertDanger, "Trial expired"},
		{"last day", 20 * time.Hour, AlertDanger, "Trial ends tomorrow"},
		{"ending soon", 3 * 24 * time.Hour, AlertWarning, "Trial ending soon"},
		{"comfortable", 6 * 24 * time.Hour, AlertInfo, "Trial active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ends := now.Add(tt.endsIn)
			tenant := tenantWithUsage(0, 1000)
			tenant.IsTrial = true
			tenant.TrialEndsAt = &ends

			alerts := s.ForTenant(tenant, true)
			require.NotEmpty(t, alerts)
			assert.Equal(t, tt.wantType, alerts[0].Type)
			assert.Equal(t, tt.wantTitle, alerts[0].Title)
		})
	}
}

func TestPriorityAlertsTruncates(t *testing.T) {
	s := NewAlertsService()
	ends := time.Now().Add(-time.Hour)
	tenant := tenantWithUsage(1000, 1000)
	tenant.IsTrial = true
	tenant.TrialEndsAt = &ends

	all := s.ForTenant(tenant, false)
	require.Greater(t, len(all), 2)

	top := s.PriorityAlerts(tenant, false, 2)
	require.Len(t, top, 2)
	assert.Equal(t, all[0], top[0])
	assert.Equal(t, all[1], top[1])
}
