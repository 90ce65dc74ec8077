package main

import (
	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/storage"
	ws "codeberg.org/sharedcanvas/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// holds all dependencies and state for the API server
type Server struct {
	config         *config.Config
	store          storage.Store
	docs           *documents.Repository
	rooms          *rooms.Manager
	coordinator    *coordinator.Coordinator
	cleanupService *coordinator.CleanupService
	hub            *ws.Hub
	router         *gin.Engine
}
