package usecases

import (
	"context"
	"sort"

	"neobot/internal/interfaces"
)

// Daily counts above this mark a tenant for operator review.
const suspiciousThreshold = 110

type TenantUsage struct {
	TenantID     int     `json:"tenant_id"`
	TenantName   string  `json:"tenant_name"`
	Plan         string  `json:"plan"`
	DailyUsage   int     `json:"daily_usage"`
	UsagePercent float64 `json:"usage_percent"`
	RiskLevel    string  `json:"risk_level"`
}

// AdminMonitor builds the operator's view of per-tenant daily traffic.
type AdminMonitor struct {
	tenants interfaces.TenantStore
	quota   *QuotaCounter
}

func NewAdminMonitor(tenants interfaces.TenantStore, quota *QuotaCounter) *AdminMonitor {
	return &AdminMonitor{tenants: tenants, quota: quota}
}

// UsageReport returns today's outbound counts for all active tenants,
// heaviest first.
func (m *AdminMonitor) UsageReport(ctx context.Context) ([]TenantUsage, error) {
	tenants, err := m.tenants.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	report := make([]TenantUsage, 0, len(tenants))
	for _, t := range tenants {
		count, err := m.quota.DailyOutboundCount(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		report = append(report, TenantUsage{
			TenantID:     t.ID,
			TenantName:   t.Name,
			Plan:         string(t.Plan),
			DailyUsage:   count,
			UsagePercent: m.quota.UsagePercent(count),
			RiskLevel:    riskLevel(count),
		})
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].DailyUsage > report[j].DailyUsage
	})
	return report, nil
}

// FlagSuspicious returns the subset of the report above the review
// threshold, in the same heaviest-first order.
func (m *AdminMonitor) FlagSuspicious(ctx context.Context) ([]TenantUsage, error) {
	report, err := m.UsageReport(ctx)
	if err != nil {
		return nil, err
	}
	flagged := report[:0:0]
	for _, u := range report {
		if u.DailyUsage > suspiciousThreshold {
			flagged = append(flagged, u)
		}
	}
	return flagged, nil
}

func riskLevel(count int) string {
	if count > suspiciousThreshold {
		return "high"
	}
	return "normal"
}
