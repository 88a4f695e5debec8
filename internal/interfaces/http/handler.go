package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"neobot/internal/entities"
	"neobot/internal/infrastructure"
	"neobot/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

type Handler struct {
	gateway   *usecases.MessageGateway
	lifecycle *usecases.ConnectionLifecycle
	transport *infrastructure.WhatsAppTransport
}

func NewHandler(gateway *usecases.MessageGateway, lifecycle *usecases.ConnectionLifecycle, transport *infrastructure.WhatsAppTransport) *Handler {
	return &Handler{
		gateway:   gateway,
		lifecycle: lifecycle,
		transport: transport,
	}
}

type Services struct {
	Gateway   *usecases.MessageGateway
	Lifecycle *usecases.ConnectionLifecycle
	Auth      *usecases.AuthUsecase
	Dashboard *usecases.DashboardUsecase
	Billing   *usecases.BillingService
	Monitor   *usecases.AdminMonitor
	Tenants   tenantAdmin
	Transport *infrastructure.WhatsAppTransport
}

func SetupRoutes(r *gin.Engine, s Services, middleware *Middleware) {
	h := NewHandler(s.Gateway, s.Lifecycle, s.Transport)
	adminHandler := NewAdminHandler(s.Monitor, s.Tenants, s.Lifecycle, s.Transport)
	dashboardHandler := NewDashboardHandler(s.Dashboard, s.Billing)

	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Public webhooks
	r.POST("/webhook/whatsapp", h.HandleInboundMessage)
	r.POST("/webhook/whatsapp/connected", h.HandleScanConfirmed)
	r.POST("/webhook/notchpay", dashboardHandler.HandlePaymentWebhook)

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, tenant, err := s.Auth.Login(c.Request.Context(), loginReq.Email, loginReq.Password)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"token": token,
				"tenant": gin.H{
					"id":    tenant.ID,
					"name":  tenant.Name,
					"email": tenant.Email,
					"plan":  tenant.Plan,
					"role":  tenant.Role,
				},
			})
		})

		authGroup.POST("/register", func(c *gin.Context) {
			var regReq struct {
				Name         string `json:"name"`
				Email        string `json:"email"`
				Phone        string `json:"phone"`
				Password     string `json:"password"`
				BusinessType string `json:"business_type"`
				Plan         string `json:"plan"`
			}
			if err := c.ShouldBindJSON(&regReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			if !ValidateLength(regReq.Name, 1, MaxNameLength) || !ValidEmail(regReq.Email) || len(regReq.Password) < 6 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name, email or password (min 6 chars)"})
				return
			}
			plan := entities.PlanType(regReq.Plan)
			if _, ok := entities.ConfigForPlan(plan); !ok {
				plan = entities.PlanBasique
			}
			tenant, err := s.Auth.Register(c.Request.Context(),
				SanitizeString(regReq.Name), regReq.Email, NormalizePhone(regReq.Phone),
				regReq.Password, SanitizeString(regReq.BusinessType), plan)
			if err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "registered", "tenant_id": tenant.ID})
		})
	}

	// Protected tenant routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerTenant(5, 10))
	{
		api.POST("/whatsapp/connect", h.Connect)
		api.GET("/whatsapp/status", h.Status)
		api.GET("/whatsapp/qr", h.QRCodePNG)
		api.POST("/whatsapp/disconnect", h.Disconnect)

		api.POST("/messages/send", h.SendMessage)

		api.GET("/dashboard/quota", dashboardHandler.Quota)
		api.GET("/dashboard/usage-history", dashboardHandler.UsageHistory)
		api.GET("/dashboard/alerts", dashboardHandler.Alerts)

		api.GET("/conversations", dashboardHandler.Conversations)
		api.GET("/conversations/:id/messages", dashboardHandler.Messages)

		api.GET("/billing/plans", dashboardHandler.Plans)
		api.POST("/billing/upgrade", dashboardHandler.InitiateUpgrade)
		api.GET("/billing/payments", dashboardHandler.PaymentHistory)
		api.GET("/billing/verify/:reference", dashboardHandler.VerifyPayment)
	}

	// Admin-only Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/usage", adminHandler.UsageReport)
		admin.GET("/suspicious", adminHandler.Suspicious)
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/tenants", adminHandler.GetAllTenants)
		admin.PUT("/tenants/:id/status", adminHandler.UpdateTenantStatus)
		admin.POST("/tenants/:id/disconnect", adminHandler.DisconnectTenant)
	}
}

// Connect starts or resumes the tenant's WhatsApp pairing flow.
func (h *Handler) Connect(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}

	status, err := h.lifecycle.RequestConnection(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("tenant_id", id).Msg("connection request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start connection"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Status reports the tenant's connection state and any usage advisory.
func (h *Handler) Status(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}

	status, err := h.lifecycle.Status(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("tenant_id", id).Msg("status lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// QRCodePNG renders the pending pairing token as a scannable PNG.
func (h *Handler) QRCodePNG(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Invalid tenant")
		return
	}

	status, err := h.lifecycle.Status(c.Request.Context(), id)
	if err != nil {
		c.String(http.StatusInternalServerError, "Could not read status")
		return
	}

	switch status.State {
	case entities.StateConnected:
		c.String(http.StatusOK, "Already connected")
		return
	case entities.StateNoSession:
		c.String(http.StatusNotFound, "No pairing in progress. Request a connection first.")
		return
	}

	png, err := qrcode.Encode(status.QRCode, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Disconnect drops the tenant's live session.
func (h *Handler) Disconnect(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
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

// SendMessage delivers an outbound message for the authenticated tenant.
func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant"})
		return
	}

	var req struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidPhone(NormalizePhone(req.To)) || !ValidateLength(req.Body, 1, MaxMessageLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipient or message"})
		return
	}

	result, err := h.gateway.Send(c.Request.Context(), id, NormalizePhone(req.To), SanitizeString(req.Body))
	if err != nil {
		log.Error().Err(err).Int("tenant_id", id).Msg("send failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process message"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleInboundMessage receives customer messages relayed by the
// transport and triggers the auto-reply pipeline.
func (h *Handler) HandleInboundMessage(c *gin.Context) {
	var payload struct {
		TenantID int    `json:"tenant_id"`
		From     string `json:"from"`
		Body     string `json:"body"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.TenantID <= 0 || payload.From == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and from are required"})
		return
	}

	go func(tenantID int, from, body string) {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if err := h.gateway.HandleInbound(ctx, tenantID, from, body); err != nil {
			log.Error().Err(err).Int("tenant_id", tenantID).Msg("inbound processing failed")
		}
	}(payload.TenantID, NormalizePhone(payload.From), SanitizeString(payload.Body))

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// Inbound processing is detached from the webhook request so the
// transport gets an immediate ack.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// HandleScanConfirmed is called by the transport once a pairing QR has
// been scanned and the device link established.
func (h *Handler) HandleScanConfirmed(c *gin.Context) {
	var payload struct {
		TenantID int    `json:"tenant_id"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.lifecycle.ConfirmScan(c.Request.Context(), payload.TenantID, NormalizePhone(payload.Phone))
	if err != nil {
		if errors.Is(err, usecases.ErrInvalidState) {
			c.JSON(http.StatusConflict, gin.H{"error": "No pairing in progress for this tenant"})
			return
		}
		log.Error().Err(err).Int("tenant_id", payload.TenantID).Msg("scan confirmation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm connection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}
