package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/logger"
	"codeberg.org/sharedcanvas/server/internal/storage"
	ws "codeberg.org/sharedcanvas/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// how long a disconnect may spend removing the member and writing its backup
const disconnectTimeout = 10 * time.Second

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}

	logger.Info("store opened", "backend", cfg.Storage.Backend)

	docs := documents.NewRepository(store)
	manager := rooms.NewManager()
	hub := ws.NewHub()

	coord := coordinator.New(manager, docs, hub, coordinator.DefaultConfig())

	// snapshot whatever survived the last run before anyone can draw over it
	written, err := coord.Recover(ctx)
	if err != nil {
		store.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to recover canvas: %w", err)
	}

	if written {
		logger.Info("startup backup written", "room_id", coord.Config().RoomID)
	}

	ws.RegisterCanvasHandlers(hub, coord)

	// a dropped socket removes its member from the room
	hub.OnClientDisconnect(func(client *ws.Client, memberID string) {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()

		removed := coord.Disconnect(ctx, memberID)
		if len(removed) > 0 {
			logger.Debug("members removed on disconnect",
				"client_id", client.ID,
				"member_id", memberID,
				"removed", removed,
			)
		}
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:         cfg,
		store:          store,
		docs:           docs,
		rooms:          manager,
		coordinator:    coord,
		cleanupService: coordinator.NewCleanupService(coord),
		hub:            hub,
		router:         router,
	}

	if err := RegisterRoutes(router, server); err != nil {
		store.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return server, nil
}
