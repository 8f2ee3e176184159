package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quoteflow/cadence-api/internal/service/cadence"
	"github.com/quoteflow/cadence-api/pkg/logger"
	"github.com/quoteflow/cadence-api/pkg/metrics"
)

type RunnerConfig struct {
	WorkerID     string
	PollInterval time.Duration
}

// Runner drives the cadence service on a fixed tick. Ticks never overlap:
// a slow batch simply delays the next one.
type Runner struct {
	service *cadence.Service
	config  RunnerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRunner(service *cadence.Service, config RunnerConfig, logger *logger.Logger, metrics *metrics.Metrics) *Runner {
	if config.WorkerID == "" {
		panic("WorkerID must be set")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &Runner{
		service: service,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.logger.Info("starting cadence worker", "worker_id", r.config.WorkerID, "poll_interval", r.config.PollInterval.String())

	// Process once immediately so a restart does not wait out a full tick.
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down cadence worker", "worker_id", r.config.WorkerID)
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	timer := prometheus.NewTimer(r.metrics.BatchDuration)
	defer timer.ObserveDuration()

	result, err := r.service.ProcessDueEvents(ctx, r.config.WorkerID)
	if err != nil {
		r.logger.Error(err, "batch failed", "worker_id", r.config.WorkerID)
		return
	}

	if result.Claimed == 0 {
		return
	}
	r.logger.Info("batch complete",
		"worker_id", r.config.WorkerID,
		"claimed", result.Claimed,
		"sent", result.Sent,
		"deferred", result.Deferred,
		"failed", result.Failed)
}
