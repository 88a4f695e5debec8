package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neobot/internal/entities"
)

// perTenantMessageStore returns a distinct daily count per tenant.
type perTenantMessageStore struct {
	mockMessageStore
	counts map[int]int
}

func (m *perTenantMessageStore) CountOutboundBetween(ctx context.Context, tenantID int, from, to time.Time) (int, error) {
	return m.counts[tenantID], nil
}

func newTestMonitor(counts map[int]int, tenants *mockTenantStore) *AdminMonitor {
	quota := NewQuotaCounter(&perTenantMessageStore{counts: counts}, nil)
	return NewAdminMonitor(tenants, quota)
}

func TestUsageReportSortedHeaviestFirst(t *testing.T) {
	tenants := newMockTenantStore()
	tenants.tenants[1] = &entities.Tenant{ID: 1, Name: "Chez Marie", Plan: entities.PlanBasique, IsActive: true}
	tenants.tenants[2] = &entities.Tenant{ID: 2, Name: "Boutique Ada", Plan: entities.PlanPro, IsActive: true}
	tenants.tenants[3] = &entities.Tenant{ID: 3, Name: "Garage Silo", Plan: entities.PlanStandard, IsActive: true}

	monitor := newTestMonitor(map[int]int{1: 30, 2: 118, 3: 75}, tenants)

	report, err := monitor.UsageReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 3)

	assert.Equal(t, []int{2, 3, 1}, []int{report[0].TenantID, report[1].TenantID, report[2].TenantID})
	assert.Equal(t, 118, report[0].DailyUsage)
}

func TestUsageReportSkipsInactiveTenants(t *testing.T) {
	tenants := newMockTenantStore()
	tenants.tenants[1] = &entities.Tenant{ID: 1, Name: "Active", IsActive: true}
	tenants.tenants[2] = &entities.Tenant{ID: 2, Name: "Suspended", IsActive: false}

	monitor := newTestMonitor(map[int]int{1: 5, 2: 50}, tenants)

	report, err := monitor.UsageReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 1, report[0].TenantID)
}

func TestRiskLevelThreshold(t *testing.T) {
	tenants := newMockTenantStore()
	tenants.tenants[1] = &entities.Tenant{ID: 1, Name: "At threshold", IsActive: true}
	tenants.tenants[2] = &entities.Tenant{ID: 2, Name: "Over threshold", IsActive: true}

	monitor := newTestMonitor(map[int]int{1: 110, 2: 111}, tenants)

	report, err := monitor.UsageReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 2)

	byID := map[int]TenantUsage{}
	for _, u := range report {
		byID[u.TenantID] = u
	}
	assert.Equal(t, "normal", byID[1].RiskLevel, "110 is at, not over, the threshold")
	assert.Equal(t, "high", byID[2].RiskLevel)
}

func TestFlagSuspicious(t *testing.T) {
	tenants := newMockTenantStore()
	tenants.tenants[1] = &entities.Tenant{ID: 1, Name: "Quiet", IsActive: true}
	tenants.tenants[2] = &entities.Tenant{ID: 2, Name: "Heavy", IsActive: true}
	tenants.tenants[3] = &entities.Tenant{ID: 3, Name: "Heavier", IsActive: true}

	monitor := newTestMonitor(map[int]int{1: 12, 2: 112, 3: 119}, tenants)

	flagged, err := monitor.FlagSuspicious(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 2)
	assert.Equal(t, 3, flagged[0].TenantID)
	assert.Equal(t, 2, flagged[1].TenantID)
}
