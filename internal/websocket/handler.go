package websocket

import (
	"interview-assist-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// ServeWs handles websocket requests from the peer. onMessage receives
// every inbound data frame for the lifetime of the connection.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, onMessage func(data []byte), log logger.ILogger) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		OnMessage: onMessage,
		logger:    log,
	}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
