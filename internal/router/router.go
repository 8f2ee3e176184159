package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	cadenceH "github.com/quoteflow/cadence-api/internal/handler/cadence"
	healthH "github.com/quoteflow/cadence-api/internal/handler/health"
	quoteH "github.com/quoteflow/cadence-api/internal/handler/quote"
	suppressionH "github.com/quoteflow/cadence-api/internal/handler/suppression"
	taskH "github.com/quoteflow/cadence-api/internal/handler/task"
	"github.com/quoteflow/cadence-api/internal/middleware"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	Timeout    time.Duration
	CORSConfig middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimit:  50,
		RateBurst:  100,
		Timeout:    30 * time.Second,
		CORSConfig: middleware.DefaultCORSConfig(),
	}
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	healthH      *healthH.Handler
	cadenceH     *cadenceH.Handler
	quoteH       *quoteH.Handler
	taskH        *taskH.Handler
	suppressionH *suppressionH.Handler
}

func New(
	auth *middleware.AuthMiddleware,
	health *healthH.Handler,
	cadence *cadenceH.Handler,
	quote *quoteH.Handler,
	task *taskH.Handler,
	suppression *suppressionH.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(limiter.RateLimit())

	return &Router{
		engine:       engine,
		auth:         auth,
		healthH:      health,
		cadenceH:     cadence,
		quoteH:       quote,
		taskH:        task,
		suppressionH: suppression,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health/live", r.healthH.Liveness)
	r.engine.GET("/health/ready", r.healthH.Readiness)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Cron surface, authenticated by API key instead of a user token.
	cron := api.Group("/cadence")
	cron.Use(r.auth.AuthenticateCron())
	{
		cron.POST("/run", r.cadenceH.Run)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		protected.GET("/events/:id", r.cadenceH.GetEvent)
		protected.POST("/events", r.cadenceH.Schedule)

		protected.GET("/quotes/:id", r.quoteH.GetQuote)
		protected.GET("/quotes/:id/events", r.quoteH.ListEvents)

		protected.GET("/tasks", r.taskH.ListTasks)
		protected.GET("/tasks/:id", r.taskH.GetTask)
		protected.POST("/tasks/:id/complete", r.taskH.CompleteTask)

		protected.GET("/suppressions", r.suppressionH.List)
		protected.GET("/suppressions/check", r.suppressionH.Check)
		protected.POST("/suppressions", r.suppressionH.Suppress)
		protected.DELETE("/suppressions/:email", r.suppressionH.Unsuppress)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
