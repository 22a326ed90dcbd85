// Package mcpserver exposes the memory engine as MCP tools over stdio or
// streamable HTTP, following the transport auto-detection convention of
// desktop MCP hosts.
package mcpserver

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/zcf0508/mem-mcp/internal/config"
	"github.com/zcf0508/mem-mcp/internal/services"
)

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

func registerHandler(s *server.MCPServer, handler toolRegisterer, name string) error {
	if err := handler.RegisterTools(s); err != nil {
		log.Error().Err(err).Msgf("Failed to register %s tools", name)
		return err
	}
	return nil
}

// Run starts the MCP server over the given service. It blocks until the
// transport shuts down.
func Run(cfg *config.Config, svc *services.MemoryService) error {
	s := server.NewMCPServer(
		cfg.MCPServerName,
		cfg.MCPServerVersion,
		server.WithToolCapabilities(true),
	)

	if err := registerHandler(s, NewMemoryToolHandler(svc), "memory"); err != nil {
		return err
	}

	if shouldUseStdio() {
		log.Info().Msg("Starting MCP server (stdio transport)")
		return server.ServeStdio(s)
	}

	log.Info().Str("addr", cfg.MCPHTTPAddr).Msg("Starting MCP server (Streamable HTTP)")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	shutdownComplete := make(chan struct{})

	streamSrv := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)

	srv := &http.Server{
		Addr:         cfg.MCPHTTPAddr,
		Handler:      streamSrv,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: 0, // no deadline, required for SSE streaming
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		defer close(shutdownComplete)

		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
		if err := streamSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during MCP server shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-shutdownComplete
	return nil
}

// shouldUseStdio reports whether stdin is a pipe, which is how MCP hosts
// launch servers for the stdio transport.
func shouldUseStdio() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}
