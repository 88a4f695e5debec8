package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"neobot/internal/config"
	"neobot/internal/infrastructure"
	"neobot/internal/interfaces"
	httpapi "neobot/internal/interfaces/http"
	"neobot/internal/jobs"
	"neobot/internal/repository"
	"neobot/internal/usecases"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// .env is a development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setLogLevel(cfg.LogLevel)

	isProduction := gin.Mode() == gin.ReleaseMode
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	pg, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pg.Close()

	if err := pg.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	tenantRepo := repository.NewTenantRepository(pg.Pool)
	sessionRepo := repository.NewSessionRepository(pg.Pool)
	messageRepo := repository.NewMessageRepository(pg.Pool)
	paymentRepo := repository.NewPaymentRepository(pg.Pool)

	var quotaCache interfaces.QuotaCache
	if cfg.RedisURL != "" {
		redisCache, err := infrastructure.NewRedisQuotaCache(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		quotaCache = redisCache
	}

	transport, err := infrastructure.NewWhatsAppTransport(cfg.DeviceStoreDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize whatsapp transport")
	}
	defer transport.Close()

	notifier := infrastructure.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminID)
	aiClient := infrastructure.NewDeepSeekClient(cfg.DeepSeekAPIKey)
	payGateway := infrastructure.NewNotchPayClient(cfg.NotchPayAPIKey)

	inboundLimiter := infrastructure.NewMessageRateLimiter(1, 5)
	defer inboundLimiter.Stop()

	quota := usecases.NewQuotaCounter(messageRepo, quotaCache)
	lifecycle := usecases.NewConnectionLifecycle(sessionRepo, transport, quota, notifier)
	gateway := usecases.NewMessageGateway(sessionRepo, tenantRepo, messageRepo, transport, quota, lifecycle, aiClient, inboundLimiter)
	authUsecase := usecases.NewAuthUsecase(tenantRepo, cfg.JWTSecret)
	alerts := usecases.NewAlertsService()
	dashboard := usecases.NewDashboardUsecase(tenantRepo, messageRepo, lifecycle, alerts)
	billing := usecases.NewBillingService(tenantRepo, paymentRepo, payGateway)
	monitor := usecases.NewAdminMonitor(tenantRepo, quota)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authUsecase.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Warn().Err(err).Msg("failed to ensure admin account")
		}
	}

	healthJob := jobs.NewHealthCheckJob(tenantRepo, lifecycle, cfg.HealthCheckInterval())
	healthJob.Start()
	defer healthJob.Stop()

	r := gin.Default()
	middleware := httpapi.NewMiddleware(cfg.JWTSecret)
	httpapi.SetupRoutes(r, httpapi.Services{
		Gateway:   gateway,
		Lifecycle: lifecycle,
		Auth:      authUsecase,
		Dashboard: dashboard,
		Billing:   billing,
		Monitor:   monitor,
		Tenants:   tenantRepo,
		Transport: transport,
	}, middleware)

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("http server starting")
		if err := r.Run(cfg.Addr()); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
