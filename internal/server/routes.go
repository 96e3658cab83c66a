// Package server wires the relay into an HTTP surface: a health check,
// a read-only room listing for server browsers, and the websocket
// signaling endpoint.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
	"github.com/dbaldassi/nocturna-sub000/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Clients negotiate the signaling subprotocol.
	Subprotocols: []string{protocol.Subprotocol},

	// Room and participant ids are unauthenticated by design, so origin
	// checking buys nothing here.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewRouter builds the gin engine for the given relay.
func NewRouter(r *relay.Relay) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Signaling server is healthy.")
	})

	router.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.RoomInfos())
	})

	router.GET("/ws", serveWS(r))

	return router
}

// serveWS upgrades the HTTP connection and hands it to the relay.
func serveWS(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}
		r.Serve(ws)
	}
}
