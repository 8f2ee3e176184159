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

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quoteflow/cadence-api/internal/config"
	"github.com/quoteflow/cadence-api/internal/email"
	"github.com/quoteflow/cadence-api/internal/repository/postgres"
	"github.com/quoteflow/cadence-api/internal/service/cadence"
	"github.com/quoteflow/cadence-api/internal/service/entitlement"
	"github.com/quoteflow/cadence-api/internal/service/suppression"
	"github.com/quoteflow/cadence-api/pkg/logger"
	messagingredis "github.com/quoteflow/cadence-api/pkg/messaging/redis"
	"github.com/quoteflow/cadence-api/pkg/metrics"
	"github.com/quoteflow/cadence-api/pkg/security"
	"github.com/quoteflow/cadence-api/pkg/worker"
)

// envOverrides lets deployments tune the worker without editing the shared
// config file. Zero values fall back to the file.
type envOverrides struct {
	BatchSize    int           `envconfig:"WORKER_BATCH_SIZE"`
	PollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL"`
	MaxDeferrals int           `envconfig:"WORKER_MAX_DEFERRALS"`
	HealthPort   int           `envconfig:"WORKER_HEALTH_PORT"`
}

func generateWorkerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("worker-%s-%d", host, time.Now().UnixNano())
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment overrides")
	}
	if env.BatchSize > 0 {
		cfg.Worker.BatchSize = env.BatchSize
	}
	if env.PollInterval > 0 {
		cfg.Worker.PollInterval = env.PollInterval
	}
	if env.MaxDeferrals > 0 {
		cfg.Worker.MaxDeferrals = env.MaxDeferrals
	}
	if env.HealthPort > 0 {
		cfg.Worker.HealthPort = env.HealthPort
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = time.Minute
	}
	if cfg.Worker.HealthPort <= 0 {
		cfg.Worker.HealthPort = 8081
	}

	workerID := generateWorkerID()
	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel}).
		WithFields(map[string]interface{}{"worker_id": workerID})

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

	m := metrics.New("cadence_worker")
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

	setupHealthCheck(cfg.Worker.HealthPort, appLogger)

	runner := worker.NewRunner(cadenceSvc, worker.RunnerConfig{
		WorkerID:     workerID,
		PollInterval: cfg.Worker.PollInterval,
	}, appLogger, m)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	runner.Start(ctx)
}
