package http

import (
	"net/http"
	"strconv"

	"neobot/internal/entities"
	"neobot/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type DashboardHandler struct {
	dashboard *usecases.DashboardUsecase
	billing   *usecases.BillingService
}

func NewDashboardHandler(dashboard *usecases.DashboardUsecase, billing *usecases.BillingService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, billing: billing}
}

// Quota returns the tenant's billed plan usage.
func (h *DashboardHandler) Quota(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	quota, err := h.dashboard.Quota(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quota"})
		return
	}
	c.JSON(http.StatusOK, quota)
}

// UsageHistory returns per-day message counts for the last N days.
func (h *DashboardHandler) UsageHistory(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	history, err := h.dashboard.UsageHistory(c.Request.Context(), id, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Alerts returns the tenant's dashboard alerts, highest priority first.
func (h *DashboardHandler) Alerts(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	alerts, err := h.dashboard.Alerts(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Conversations lists the tenant's customer threads, most recent first.
func (h *DashboardHandler) Conversations(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	conversations, err := h.dashboard.Conversations(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// Messages lists one conversation's messages, oldest first.
func (h *DashboardHandler) Messages(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	convID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}
	messages, err := h.dashboard.Messages(c.Request.Context(), id, convID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Plans returns the purchasable plan catalogue.
func (h *DashboardHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.billing.Plans()})
}

// InitiateUpgrade starts a plan purchase and returns the checkout URL.
func (h *DashboardHandler) InitiateUpgrade(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	link, err := h.billing.InitiateUpgrade(c.Request.Context(), id, entities.PlanType(req.Plan))
	if err != nil {
		log.Error().Err(err).Int("tenant_id", id).Msg("upgrade initiation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not start upgrade"})
		return
	}
	c.JSON(http.StatusOK, link)
}

// PaymentHistory lists the tenant's payments, newest first.
func (h *DashboardHandler) PaymentHistory(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}
	payments, err := h.billing.PaymentHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// VerifyPayment is the client-side return path after checkout.
func (h *DashboardHandler) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	if err := h.billing.ConfirmPayment(c.Request.Context(), reference); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("payment verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not verify payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// HandlePaymentWebhook receives provider callbacks for payment events.
func (h *DashboardHandler) HandlePaymentWebhook(c *gin.Context) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if payload.Data.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reference"})
		return
	}

	if err := h.billing.ConfirmPayment(c.Request.Context(), payload.Data.Reference); err != nil {
		log.Error().Err(err).Str("reference", payload.Data.Reference).Msg("webhook payment confirmation failed")
		// 200 regardless, the provider retries on non-2xx and the
		// reference can also be settled from the return URL.
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
