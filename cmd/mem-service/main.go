package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zcf0508/mem-mcp/internal/api"
	"github.com/zcf0508/mem-mcp/internal/config"
	"github.com/zcf0508/mem-mcp/internal/eviction"
	"github.com/zcf0508/mem-mcp/internal/logger"
	"github.com/zcf0508/mem-mcp/internal/services"
	"github.com/zcf0508/mem-mcp/internal/store/fsstore"
)

func main() {
	log := logger.New("mem-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("http_port", cfg.HTTPPort).
		Int("max_hot_records", cfg.MaxHotRecords).
		Msg("Memory service starting")

	st := fsstore.New(cfg.DataDir, log)
	sweeper := eviction.NewSweeper(st, log, nil)
	throttle := eviction.NewThrottle(cfg.SweepInterval)
	svc := services.NewMemoryService(st, sweeper, throttle, log,
		services.WithMaxHotRecords(cfg.MaxHotRecords))

	router := api.NewRouter(svc)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
