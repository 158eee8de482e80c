package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zafarb-21/rpm-web-dashboard/internal/config"
	"github.com/zafarb-21/rpm-web-dashboard/internal/httpapi"
	"github.com/zafarb-21/rpm-web-dashboard/internal/logger"
	"github.com/zafarb-21/rpm-web-dashboard/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "rpm-backend")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting rpm-backend",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Strings("mqtt_topics", cfg.MQTT.Topics),
	)

	ingest := service.NewIngestService(cfg, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ingest.Start(ctx); err != nil {
		zlog.Fatal("Failed to start ingest service", zap.Error(err))
	}

	query := httpapi.NewQueryHandler(ingest.VitalsCache, ingest.ECGCache, ingest.VitalsRepo, zlog)
	router := httpapi.NewRouter(zlog)
	router.RegisterQueryRoutes(query)

	srv := service.NewServer(cfg.HTTP.Addr, router, zlog)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop the subscriber first so no message callback races teardown,
	// then drain the HTTP server.
	if err := ingest.Stop(shutdownCtx); err != nil {
		zlog.Error("Error stopping ingest service", zap.Error(err))
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		zlog.Error("Error stopping HTTP server", zap.Error(err))
	}

	zlog.Info("Service stopped")
}
