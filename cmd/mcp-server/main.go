// Package main provides the MCP server entry point for the WattSaver energy advisor.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/wattsaver/internal/app"
	"github.com/bull/wattsaver/internal/config"
	mcpserver "github.com/bull/wattsaver/internal/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logs go to stderr: in stdio mode stdout carries the MCP protocol.
	logger := app.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer a.Close()

	// The index must be complete before any question is served
	result, err := a.BuildIndex(ctx)
	if err != nil {
		log.Fatalf("failed to build index: %v", err)
	}
	logger.Info("Index ready", "chunks", result.TotalChunks, "failed_docs", len(result.FailedDocs))

	server := mcpserver.NewServer(&mcpserver.Config{
		Advisor:  a.Advisor(),
		Products: a.Products(),
		Index:    a,
	})
	api := mcpserver.NewAPI(a.Advisor(), a.Products(), logger)
	mux := mcpserver.NewMux(server, api, a.Store(), nil)

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if cfg.Server.HTTP {
		// HTTP mode: serve MCP over HTTP for remote clients
		logger.Info("Starting HTTP server", "addr", httpServer.Addr, "mcp", "/mcp", "api", "/api/ask")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: run MCP server over stdin/stdout for local clients.
	// The HTTP API and health endpoint run in the background.
	go func() {
		logger.Info("Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	logger.Info("Starting WattSaver MCP server (stdio mode)")
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
