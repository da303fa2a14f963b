// Command trafficcastd serves the forecast pipeline over HTTP
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/internal/config"
	"github.com/aouyang1/go-traffic-forecaster/internal/logger"
	"github.com/aouyang1/go-traffic-forecaster/internal/metrics"
	"github.com/aouyang1/go-traffic-forecaster/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	opt, err := cfg.PipelineOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pipeline configuration")
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		Log:            log,
		Options:        opt,
		Metrics:        metrics.NewManager(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigins:    cfg.CORSOrigins,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
