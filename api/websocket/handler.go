package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/sharedcanvas/server/internal/errors"
	"codeberg.org/sharedcanvas/server/internal/logger"
	ws "codeberg.org/sharedcanvas/server/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// WebSocketHandler godoc
// @Summary Connect to the shared canvas
// @Description Upgrades to a websocket speaking the canvas protocol (join, leave, submit_update, request_state, ping). The connection holds no member until it sends join.
// @Tags websocket
// @Success 101
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/ws [get]
func WebSocketHandler(hub *ws.Hub, roomID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// check connection limits before accepting new connection
		ipAddress := c.ClientIP()
		canAccept, reason := hub.CanAcceptConnection(ipAddress)

		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		// upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		client := ws.NewClient(clientID, roomID, ipAddress, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"room_id", roomID,
			"ip", ipAddress,
		)
	}
}
