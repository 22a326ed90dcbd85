package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zcf0508/mem-mcp/internal/config"
	"github.com/zcf0508/mem-mcp/internal/eviction"
	"github.com/zcf0508/mem-mcp/internal/logger"
	"github.com/zcf0508/mem-mcp/internal/mcpserver"
	"github.com/zcf0508/mem-mcp/internal/services"
	"github.com/zcf0508/mem-mcp/internal/store/fsstore"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	appLog := logger.New(cfg.MCPServerName)
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	log.Logger = appLog

	st := fsstore.New(cfg.DataDir, appLog)
	sweeper := eviction.NewSweeper(st, appLog, nil)
	throttle := eviction.NewThrottle(cfg.SweepInterval)
	svc := services.NewMemoryService(st, sweeper, throttle, appLog,
		services.WithMaxHotRecords(cfg.MaxHotRecords))

	if err := mcpserver.Run(cfg, svc); err != nil {
		log.Error().Err(err).Msg("MCP server exited with error")
		os.Exit(1)
	}
}
