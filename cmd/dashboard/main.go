package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/api/swagger"
	"github.com/noah-isme/cve-dashboard/internal/gateway"
	"github.com/noah-isme/cve-dashboard/internal/handler"
	"github.com/noah-isme/cve-dashboard/internal/middleware"
	"github.com/noah-isme/cve-dashboard/internal/repository"
	"github.com/noah-isme/cve-dashboard/internal/service"
	"github.com/noah-isme/cve-dashboard/pkg/cache"
	"github.com/noah-isme/cve-dashboard/pkg/config"
	"github.com/noah-isme/cve-dashboard/pkg/jobs"
	"github.com/noah-isme/cve-dashboard/pkg/logger"
	corsmiddleware "github.com/noah-isme/cve-dashboard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cve-dashboard/pkg/middleware/requestid"
	"github.com/noah-isme/cve-dashboard/pkg/storage"
)

// @title CVE Change Dashboard API
// @version 1.0.0
// @description Backend for the CVE change-history dashboard. Table state is held per X-Session-ID.
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	gw := gateway.New(cfg.Gateway.BaseURL, cfg.Gateway.Timeout,
		gateway.WithObserver(metricsSvc),
		gateway.WithLogger(logr),
	)
	if cfg.Gateway.ProbeEnabled {
		probeGateway(ctx, gw, cfg.Gateway.ProbeMaxElapsed, logr)
	}

	var cacheRepo service.CacheRepository
	if cfg.Charts.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("chart cache disabled, redis unavailable", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, repository.DefaultKeyNamespace, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Charts.CacheTTL, logr, cfg.Charts.CacheEnabled)

	tableCfg := service.ResultSetConfig{
		DefaultPageSize: cfg.Table.DefaultPageSize,
		PageSizeOptions: cfg.Table.PageSizeOptions,
	}
	registry := service.NewSessionRegistry(func(id string) *service.Session {
		return &service.Session{
			Controller:  service.NewResultSetController(gw, metricsSvc, logr.With(zap.String("session_id", id)), tableCfg),
			Suggestions: service.NewDebouncer(cfg.Suggestions.Debounce),
		}
	}, logr)
	metricsSvc.TrackSessions(registry.Len)

	exportCfg := service.ExportConfig{Persist: cfg.Exports.Persist, Retention: cfg.Exports.Retention}
	var exportSvc *service.ExportService
	if cfg.Exports.Persist {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		exportSvc = service.NewExportService(gw, store, exportCfg, logr, nil, nil)
		persistQueue := jobs.NewQueue("export-persist", exportSvc.HandlePersistJob, jobs.QueueConfig{
			Workers: 2,
			Logger:  logr,
		})
		persistQueue.Start(ctx)
		defer persistQueue.Stop()
		exportSvc.UsePersistQueue(persistQueue)
	} else {
		exportSvc = service.NewExportService(gw, nil, exportCfg, logr, nil, nil)
	}

	mutationSvc := service.NewMutationService(gw, cacheSvc, validator.New(), logr)
	chartSvc := service.NewChartService(gw, cacheSvc, cfg.Charts.CacheTTL, logr)
	eventOptionSvc := service.NewEventOptionService(gw, logr)
	suggestionSvc := service.NewSuggestionService(gw, cfg.Suggestions.Limit, logr)

	viewHandler := handler.NewViewHandler(exportSvc)
	recordHandler := handler.NewRecordHandler(mutationSvc)
	eventOptionHandler := handler.NewEventOptionHandler(eventOptionSvc)
	chartHandler := handler.NewChartHandler(chartSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, gw)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		swagger.SwaggerInfo.BasePath = cfg.APIPrefix
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Session(registry))

	view := api.Group("/view")
	view.GET("", viewHandler.Get)
	view.POST("/mode", viewHandler.SetMode)
	view.POST("/page", viewHandler.FetchPage)
	view.POST("/page-size", viewHandler.SetPageSize)
	view.POST("/sort", viewHandler.SetSort)
	view.POST("/text-filter", viewHandler.ApplyTextFilter)
	view.POST("/refresh", viewHandler.Refresh)
	view.DELETE("/error", viewHandler.DismissError)
	view.GET("/export", viewHandler.Export)

	records := api.Group("/records")
	records.GET("/:id", recordHandler.Get)
	records.POST("", middleware.Audit(logr, "create", "change_record"), recordHandler.Create)
	records.PUT("/:id", middleware.Audit(logr, "update", "change_record"), recordHandler.Update)
	records.DELETE("/:id", middleware.Audit(logr, "delete", "change_record"), recordHandler.Delete)

	api.GET("/event-options", eventOptionHandler.List)
	api.POST("/event-options", middleware.Audit(logr, "create", "event_option"), eventOptionHandler.Create)

	charts := api.Group("/charts")
	charts.GET("/event-counts", chartHandler.EventCounts)
	charts.GET("/year-counts", chartHandler.YearCounts)
	charts.GET("/top-sources", chartHandler.TopSources)
	charts.GET("/analysis-status", chartHandler.AnalysisStatus)
	charts.GET("/monthly-trends", chartHandler.MonthlyTrends)
	charts.GET("/growth", chartHandler.Growth)
	charts.GET("/summary", chartHandler.Summary)

	api.GET("/export", exportHandler.Download)
	api.GET("/suggestions", suggestionHandler.Suggest)

	go runMaintenance(ctx, cfg.Sessions, registry, exportSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("gateway", cfg.Gateway.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// probeGateway waits for the gateway to answer, giving up after maxElapsed.
// The server starts either way; /ready keeps reporting the gateway state.
func probeGateway(ctx context.Context, gw *gateway.Client, maxElapsed time.Duration, logr *zap.Logger) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = maxElapsed

	err := backoff.RetryNotify(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return gw.Ping(pingCtx)
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		logr.Warn("gateway not ready", zap.Error(err), zap.Duration("retry_in", next))
	})
	if err != nil {
		logr.Warn("gateway probe gave up", zap.Error(err))
		return
	}
	logr.Info("gateway reachable")
}

func runMaintenance(ctx context.Context, cfg config.SessionConfig, registry *service.SessionRegistry, exports *service.ExportService) {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep(cfg.IdleTTL)
			exports.Cleanup()
		}
	}
}
