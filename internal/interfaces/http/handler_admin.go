package http

import (
	"context"
	"net/http"
	"strconv"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"
	"neobot/internal/repository"
	"neobot/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// tenantAdmin is the slice of the tenant repository the admin surface
// needs.
type tenantAdmin interface {
	ListAll(ctx context.Context) ([]entities.Tenant, error)
	UpdateStatus(ctx context.Context, id int, isActive bool) error
	GetStats(ctx context.Context) (*repository.TenantStats, error)
}

type AdminHandler struct {
	monitor   *usecases.AdminMonitor
	tenants   tenantAdmin
	lifecycle *usecases.ConnectionLifecycle
	transport *infrastructure.WhatsAppTransport
}

func NewAdminHandler(monitor *usecases.AdminMonitor, tenants tenantAdmin, lifecycle *usecases.ConnectionLifecycle, transport *infrastructure.WhatsAppTransport) *AdminHandler {
	return &AdminHandler{
		monitor:   monitor,
		tenants:   tenants,
		lifecycle: lifecycle,
		transport: transport,
	}
}

// UsageReport returns today's traffic per active tenant, heaviest first.
func (h *AdminHandler) UsageReport(c *gin.Context) {
	report, err := h.monitor.UsageReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build usage report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": report, "count": len(report)})
}

// Suspicious returns tenants above the daily review threshold.
func (h *AdminHandler) Suspicious(c *gin.Context) {
	flagged, err := h.monitor.FlagSuspicious(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": flagged, "count": len(flagged)})
}

// GetStats returns platform statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.tenants.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAllTenants returns the tenant roster with connection state.
func (h *AdminHandler) GetAllTenants(c *gin.Context) {
	tenants, err := h.tenants.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenants"})
		return
	}

	result := make([]gin.H, len(tenants))
	for i, t := range tenants {
		state := entities.StateNoSession
		if status, err := h.lifecycle.Status(c.Request.Context(), t.ID); err == nil {
			state = status.State
		}
		result[i] = gin.H{
			"id":             t.ID,
			"name":           t.Name,
			"email":          t.Email,
			"plan":           t.Plan,
			"role":           t.Role,
			"is_active":      t.IsActive,
			"is_trial":       t.IsTrial,
			"messages_used":  t.MessagesUsed,
			"messages_limit": t.MessagesLimit,
			"session_state":  state,
			"created_at":     t.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, result)
}

// UpdateTenantStatus enables/disables a tenant account
func (h *AdminHandler) UpdateTenantStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return
	}

	var payload struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Don't allow disabling self
	if current, ok := tenantID(c); ok && current == id && !payload.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot disable your own account"})
		return
	}

	if err := h.tenants.UpdateStatus(c.Request.Context(), id, payload.IsActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tenant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "is_active": payload.IsActive})
}

// DisconnectTenant forcefully drops a tenant's WhatsApp session.
func (h *AdminHandler) DisconnectTenant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return
	}

	if h.transport != nil {
		h.transport.Disconnect(id)
	}
	if err := h.lifecycle.CheckHealth(c.Request.Context(), id); err != nil {
		log.Warn().Err(err).Int("tenant_id", id).Msg("post-disconnect sync failed")
	}
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}
