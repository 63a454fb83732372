package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuspulse/engagement-api/internal/adapter"
	"github.com/campuspulse/engagement-api/internal/handler"
	"github.com/campuspulse/engagement-api/internal/middleware"
	"github.com/campuspulse/engagement-api/internal/models"
	"github.com/campuspulse/engagement-api/internal/repository"
	"github.com/campuspulse/engagement-api/internal/service"
	"github.com/campuspulse/engagement-api/pkg/cache"
	"github.com/campuspulse/engagement-api/pkg/config"
	"github.com/campuspulse/engagement-api/pkg/database"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
	"github.com/campuspulse/engagement-api/pkg/lock"
	"github.com/campuspulse/engagement-api/pkg/logger"
	corsmiddleware "github.com/campuspulse/engagement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuspulse/engagement-api/pkg/middleware/requestid"
	"github.com/campuspulse/engagement-api/pkg/sched"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("connect redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := adapter.NewDefaultRegistry(db, cfg.Aggregation.Modules)
	if len(registry.All()) == 0 {
		logr.Sugar().Fatalw("no activity adapters enabled", "error", appErrors.ErrNoAdapters)
	}

	frequencyRepo := repository.NewFrequencyRepository(db)
	trendRepo := repository.NewTrendRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	capabilityRepo := repository.NewCapabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db, cfg.Tracking.SessionChunkSize)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	locker := service.RedisLocker{Manager: lock.NewManager(redisClient, cfg.Aggregation.LockTTL)}

	scheduler := sched.New(logr)

	aggregationService := service.NewAggregationService(service.AggregationServiceParams{
		Registry:      registry,
		Frequency:     frequencyRepo,
		Participation: participationRepo,
		Capabilities:  capabilityRepo,
		Pending:       scheduler,
		Locker:        locker,
		Cache:         cacheService,
		Metrics:       metricsService,
		Logger:        logr,
	})
	trackingService := service.NewTrackingService(registry, participationRepo, sessionRepo, trendRepo, metricsService, logr, service.TrackingServiceConfig{
		LookAhead:      cfg.Tracking.LookAhead,
		LookBehind:     cfg.Tracking.LookBehind,
		SessionTimeout: cfg.Tracking.SessionTimeout,
	})
	dashboardService := service.NewDashboardService(frequencyRepo, trendRepo, registry, cacheService, metricsService, logr, service.DashboardServiceConfig{
		CacheTTL:        cfg.Dashboard.CacheTTL,
		LookAheadHours:  int(cfg.Tracking.LookAhead / time.Hour),
		LookBehindHours: int(cfg.Tracking.LookBehind / time.Hour),
	})
	exportService := service.NewExportService(frequencyRepo)
	authService := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret})

	if cfg.Aggregation.Enabled {
		scheduler.RegisterPeriodic(service.JobAggregationPeriodic, cfg.Aggregation.Interval, aggregationService.RunPeriodic)
	}
	scheduler.RegisterAdhoc(service.JobAggregationFull, aggregationService.RunFull)
	if cfg.Tracking.Enabled {
		for _, src := range registry.All() {
			module := src.ModuleName()
			scheduler.RegisterPeriodic("track:"+module, cfg.Tracking.Interval, func(ctx context.Context) error {
				return trackingService.TrackModule(ctx, module)
			})
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	dashboardHandler := handler.NewDashboardHandler(dashboardService, exportService)
	adminHandler := handler.NewAdminHandler(scheduler, metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.JWT(authService))

	reports := api.Group("")
	reports.Use(middleware.RequireCapability(models.CapabilityReportView, models.CapabilityReportAdmin))
	reports.GET("/frequency", dashboardHandler.Frequency)
	reports.GET("/frequency/export", dashboardHandler.ExportFrequency)
	reports.GET("/trends/:module/:instanceID", dashboardHandler.Trends)
	reports.GET("/partition", dashboardHandler.Partition)
	reports.GET("/activities/:module/:instanceID/dashboard", dashboardHandler.ActivityDashboard)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireCapability(models.CapabilityReportAdmin))
	admin.POST("/aggregate", adminHandler.Aggregate)
	admin.GET("/jobs", adminHandler.Jobs)
	admin.DELETE("/trends/:module/:instanceID", dashboardHandler.ClearTrends)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "adapters", registry.Len())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
