package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/quoteflow/cadence-api/internal/config"
	"github.com/quoteflow/cadence-api/internal/email"
	cadenceHandler "github.com/quoteflow/cadence-api/internal/handler/cadence"
	healthHandler "github.com/quoteflow/cadence-api/internal/handler/health"
	quoteHandler "github.com/quoteflow/cadence-api/internal/handler/quote"
	suppressionHandler "github.com/quoteflow/cadence-api/internal/handler/suppression"
	taskHandler "github.com/quoteflow/cadence-api/internal/handler/task"
	"github.com/quoteflow/cadence-api/internal/middleware"
	"github.com/quoteflow/cadence-api/internal/repository/postgres"
	"github.com/quoteflow/cadence-api/internal/router"
	"github.com/quoteflow/cadence-api/internal/service/cadence"
	"github.com/quoteflow/cadence-api/internal/service/entitlement"
	"github.com/quoteflow/cadence-api/internal/service/suppression"
	"github.com/quoteflow/cadence-api/pkg/logger"
	messagingredis "github.com/quoteflow/cadence-api/pkg/messaging/redis"
	"github.com/quoteflow/cadence-api/pkg/metrics"
	"github.com/quoteflow/cadence-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	eventRepo := postgres.NewEventRepository(base)
	quoteRepo := postgres.NewQuoteRepository(base)
	contactRepo := postgres.NewContactRepository(base)
	taskRepo := postgres.NewTaskRepository(base)
	orgRepo := postgres.NewOrganizationRepository(base)
	templateRepo := postgres.NewTemplateRepository(base)
	suppressionRepo := postgres.NewSuppressionRepository(base)
	sendLogRepo := postgres.NewSendLogRepository(base)

	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	encryptionKey, err := hex.DecodeString(cfg.Security.EncryptionKey)
	if err != nil || len(encryptionKey) != 32 {
		log.Fatal().Msg("encryption key must be 32 bytes, hex encoded")
	}
	encryptor, err := security.NewAESEncryptor(encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	suppressionSvc := suppression.NewService(suppressionRepo)
	entitlementSvc := entitlement.NewService(orgRepo)
	transport := email.NewSMTPTransport(email.SharedSMTPConfig{
		Host: cfg.SMTP.Host,
		Port: cfg.SMTP.Port,
		User: cfg.SMTP.User,
		Pass: cfg.SMTP.Pass,
		From: cfg.SMTP.From,
	}, suppressionRepo, sendLogRepo, encryptor, appLogger)

	m := metrics.New("cadence_api")
	cadenceSvc := cadence.NewService(
		eventRepo, quoteRepo, contactRepo, taskRepo, orgRepo, templateRepo,
		suppressionSvc, entitlementSvc, transport, broker,
		appLogger, m,
		cadence.Config{
			BatchSize:    cfg.Worker.BatchSize,
			ClaimSLA:     time.Duration(cfg.Worker.ClaimSLAMinutes) * time.Minute,
			MaxDeferrals: cfg.Worker.MaxDeferrals,
		},
	)

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.Security.CronAPIKeyHash)

	r := router.New(
		auth,
		healthHandler.NewHandler(db),
		cadenceHandler.NewHandler(cadenceSvc, eventRepo),
		quoteHandler.NewHandler(quoteRepo, eventRepo),
		taskHandler.NewHandler(taskRepo),
		suppressionHandler.NewHandler(suppressionSvc),
		router.DefaultConfig(),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
