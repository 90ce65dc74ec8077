package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

// @title Shared Canvas API
// @version 1.0
// @description Real-time shared drawing canvas for a single room of up to eight members
// @description
// @description Features:
// @description - Join the canvas over a WebSocket and draw together
// @description - Host election and eviction of the oldest member when the room is full
// @description - Durable canvas state with periodic backups and manual save history

// @contact.name API Support
// @contact.url https://codeberg.org/sharedcanvas/server

// @license.name GPL-3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

// @BasePath /

// @securityDefinitions.apikey OpsToken
// @in header
// @name Authorization
// @description OPS_TOKEN for the restore and reset endpoints. Format: Bearer {token}

func main() {
	logger.Info("starting shared canvas server")

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("invalid server configuration", "error", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)

	// create server with all dependencies
	srv, err := NewServer(startCtx, cfg)
	startCancel()
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start websocket hub before accepting connections
	go srv.hub.Run()

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port, "store", cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start member cleanup service with cancellable context
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go srv.cleanupService.Start(cleanupCtx)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// stop cleanup service
	cleanupCancel()

	logger.Info("shutting down server")

	// graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// notify websocket clients and close connections first
	srv.hub.Shutdown(ctx)

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// close store connection
	if err := srv.store.Close(); err != nil {
		logger.ErrorErr(err, "failed to close store")
	}

	logger.Info("server stopped")
}
