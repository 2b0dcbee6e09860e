package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with
// the hub. The caller has already authenticated the actor; admins
// receive workflow broadcasts, users receive their own resolutions.
func HandleWebSocket(c echo.Context, hub *Hub, userID int64, admin bool) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Admin:  admin,
		send:   make(chan Notification, sendBuffer),
	}

	hub.register <- client

	// Single writer for this connection; exits when the hub closes the
	// send channel on unregister.
	go func() {
		defer conn.Close()
		for notification := range client.send {
			if err := conn.WriteJSON(notification); err != nil {
				break
			}
		}
	}()

	client.enqueue(Notification{
		Type:    "connected",
		Message: "WebSocket connection established",
		UserID:  userID,
	})

	// Drain the connection until the peer goes away
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
