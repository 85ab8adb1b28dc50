package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prepmyapp/notification/internal/channel"
	"github.com/prepmyapp/notification/internal/config"
	"github.com/prepmyapp/notification/internal/database"
	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/handler"
	"github.com/prepmyapp/notification/internal/handler/middleware"
	"github.com/prepmyapp/notification/internal/infrastructure/audit"
	"github.com/prepmyapp/notification/internal/infrastructure/cache"
	"github.com/prepmyapp/notification/internal/infrastructure/firebase"
	"github.com/prepmyapp/notification/internal/infrastructure/sendgrid"
	"github.com/prepmyapp/notification/internal/infrastructure/sms"
	"github.com/prepmyapp/notification/internal/infrastructure/websocket"
	"github.com/prepmyapp/notification/internal/repository/postgres"
	"github.com/prepmyapp/notification/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := log.With().Str("service", "notification").Logger()
	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	db, err := database.New(ctx, database.DefaultConfig(cfg.Database.URL), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	logger.Info().Msg("connected to database")

	cacheStore := cache.NewStore(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	}, logger)
	if cacheStore.Configured() {
		logger.Info().Msg("redis cache store initialized")
	}

	notificationRepo := postgres.NewNotificationRepository(db.Pool)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db.Pool)
	preferenceRepo := postgres.NewPreferenceRepository(db.Pool, cacheStore, logger)
	quietHoursRepo := postgres.NewQuietHoursRepository(db.Pool, cacheStore, logger)

	var pushProvider domain.PushProvider
	firebaseClient, err := firebase.NewClient(ctx, firebase.Config{
		CredentialsPath: cfg.Firebase.CredentialsPath,
		CredentialsJSON: cfg.Firebase.CredentialsJSON,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize firebase, push notifications disabled")
	} else if firebaseClient != nil {
		pushProvider = firebaseClient
		logger.Info().Msg("firebase push provider initialized")
	}

	emailRenderer := sendgrid.NewClient(sendgrid.Config{
		APIKey:    cfg.SendGrid.APIKey,
		FromEmail: cfg.SendGrid.FromEmail,
		FromName:  cfg.SendGrid.FromName,
		Templates: cfg.SendGrid.Templates,
	})
	if emailRenderer.Configured() {
		logger.Info().Msg("sendgrid email renderer initialized")
	}

	smsProvider := sms.NewTwilioClient(sms.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
		RateLimit:  cfg.Twilio.RateLimit,
	})
	if smsProvider.Configured() {
		logger.Info().Msg("twilio sms provider initialized")
	}

	auditSink := audit.NewClient(audit.Config{
		BaseURL: cfg.Audit.BaseURL,
		APIKey:  cfg.Audit.APIKey,
	}, logger)
	if auditSink.Configured() {
		logger.Info().Msg("audit sink initialized")
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info().Msg("websocket hub started")

	inAppAdapter := channel.NewInAppAdapter(notificationRepo, wsHub, logger)
	pushAdapter := channel.NewPushAdapter(pushProvider, deviceTokenRepo, logger)
	emailAdapter := channel.NewEmailAdapter(emailRenderer, emailFromDomain(cfg.SendGrid.FromEmail), logger)
	smsAdapter := channel.NewSMSAdapter(smsProvider, logger)

	adapters := []domain.ChannelAdapter{inAppAdapter, pushAdapter, emailAdapter, smsAdapter}
	router := service.NewChannelRouter(adapters, preferenceRepo, quietHoursRepo, logger)

	var auditSinkIface domain.AuditSink
	if auditSink.Configured() {
		auditSinkIface = auditSink
	}
	dispatch := service.NewDispatchService(notificationRepo, router, inAppAdapter, auditSinkIface, logger)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestID())

	ginRouter.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5001", "https://prepmy.com", "https://prepmyapp.com"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupRoutes(ginRouter, cfg, db, cacheStore, dispatch, deviceTokenRepo, preferenceRepo, quietHoursRepo, wsHub, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      ginRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting notification service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	gracefulShutdown(srv, db, logger)
}

func emailFromDomain(fromEmail string) string {
	for i := len(fromEmail) - 1; i >= 0; i-- {
		if fromEmail[i] == '@' {
			return fromEmail[i+1:]
		}
	}
	return "notifications.local"
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *database.DB,
	cacheStore *cache.Store,
	dispatch *service.DispatchService,
	deviceTokenRepo *postgres.DeviceTokenRepository,
	preferenceRepo *postgres.PreferenceRepository,
	quietHoursRepo *postgres.QuietHoursRepository,
	wsHub *websocket.Hub,
	logger zerolog.Logger,
) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	healthHandler := handler.NewHealthHandler(db, cacheStore)
	healthHandler.RegisterRoutes(&router.RouterGroup)

	if cfg.Auth.JWTSecret != "" {
		wsHandler := handler.NewWebSocketHandler(wsHub, cfg.Auth.JWTSecret, logger)
		wsHandler.RegisterRoutes(router)
	}

	v1 := router.Group("/api/v1")
	if cfg.Auth.JWTSecret != "" {
		v1.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	}

	handler.NewNotificationHandler(dispatch).RegisterRoutes(v1)
	handler.NewDeviceTokenHandler(deviceTokenRepo).RegisterRoutes(v1)
	handler.NewPreferencesHandler(preferenceRepo, quietHoursRepo).RegisterRoutes(v1)

	v1.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "notification",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	internal := router.Group("/internal/v1")
	if len(cfg.Auth.APIKeys) > 0 {
		internal.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}

	handler.NewInternalHandler(dispatch).RegisterRoutes(internal)

	internal.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "internal API",
			"status":  "ready",
		})
	})
}

func gracefulShutdown(srv *http.Server, db *database.DB, logger zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	db.Close()
	logger.Info().Msg("database connection closed")
}
