package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/renderprep-backend/internal/clients/redis"
	"github.com/yungbote/renderprep-backend/internal/compliance"
	"github.com/yungbote/renderprep-backend/internal/handlers"
	"github.com/yungbote/renderprep-backend/internal/logger"
	"github.com/yungbote/renderprep-backend/internal/observability"
	"github.com/yungbote/renderprep-backend/internal/pipeline"
	"github.com/yungbote/renderprep-backend/internal/server"
	"github.com/yungbote/renderprep-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "renderprep",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     pipeline.ResponseVersion,
	})

	// Metrics
	log.Info("Setting up metrics from main...")
	registry := prometheus.NewRegistry()
	collector := pipeline.NewCollector(registry)
	httpMetrics := observability.NewHTTPMetrics(registry)
	if observability.MetricsEnabled() {
		observability.ServeMetrics(ctx, log, utils.GetEnv("METRICS_ADDR", ":9091", log), registry)
	}

	// Redis response cache (optional)
	var cache redis.ResponseCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		cache, err = redis.NewResponseCache(log)
		if err != nil {
			log.Warn("Response cache init failed, continuing without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Pipeline
	log.Info("Setting up pipeline from main...")
	complianceEngine := compliance.NewEngine(log)
	orch := pipeline.NewOrchestrator(log, complianceEngine, collector)

	// Handlers
	log.Info("Setting up handlers from main...")
	pipelineHandler := handlers.NewPipelineHandler(log, orch, cache)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		PipelineHandler: pipelineHandler,
		AllowOrigins:    splitOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)),
		Middleware:      []gin.HandlerFunc{httpMetrics.Middleware()},
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown incomplete", "error", err)
		}
		if otelShutdown != nil {
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("Trace exporter shutdown incomplete", "error", err)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
	}
}

func splitOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
