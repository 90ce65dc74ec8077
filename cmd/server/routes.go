package main

import (
	"net/http"
	"time"

	"codeberg.org/sharedcanvas/server/api/rest/canvas"
	"codeberg.org/sharedcanvas/server/api/rest/health"
	"codeberg.org/sharedcanvas/server/api/websocket"
	"codeberg.org/sharedcanvas/server/internal/router"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "codeberg.org/sharedcanvas/server/docs"
)

type handlers = []gin.HandlerFunc

// every route the server exposes
func Routes(server *Server) router.Table {
	roomID := server.coordinator.Config().RoomID
	ops := canvas.OpsOnly(server.config.OpsToken)

	return router.Table{
		{Method: http.MethodGet, Path: "/health", Handlers: handlers{health.Handler}},
		{Method: http.MethodGet, Path: "/swagger/*any", Handlers: handlers{ginSwagger.WrapHandler(swaggerFiles.Handler)}},

		{Method: http.MethodGet, Path: "/api/v1/ping", Handlers: handlers{health.PingHandler}},
		{Method: http.MethodGet, Path: "/api/v1/canvas", Handlers: handlers{canvas.GetCanvasHandler(server.docs, server.coordinator)}},
		{Method: http.MethodPost, Path: "/api/v1/canvas/save", Handlers: handlers{canvas.SaveCanvasHandler(server.docs)}},
		{Method: http.MethodGet, Path: "/api/v1/canvas/backups", Handlers: handlers{canvas.ListBackupsHandler(server.docs)}},
		{Method: http.MethodGet, Path: "/api/v1/canvas/rooms", Handlers: handlers{canvas.RoomsHandler(server.rooms)}},
		{Method: http.MethodPost, Path: "/api/v1/canvas/restore", Handlers: handlers{ops, canvas.RestoreHandler(server.docs)}},
		{Method: http.MethodPost, Path: "/api/v1/canvas/reset", Handlers: handlers{ops, canvas.ResetHandler(server.docs)}},
		{Method: http.MethodGet, Path: "/api/v1/ws", Handlers: handlers{websocket.WebSocketHandler(server.hub, roomID)}},
	}
}

// sets up middleware and binds the route table; fails before anything is bound if the table is invalid
func RegisterRoutes(engine *gin.Engine, server *Server) error {
	engine.Use(cors.New(corsConfig(server)))

	return Routes(server).Register(engine)
}

func corsConfig(server *Server) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	if server.config.IsProduction() {
		cfg.AllowOrigins = server.config.AllowedOrigins
	} else {
		cfg.AllowAllOrigins = true
	}

	return cfg
}
