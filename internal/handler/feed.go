package handler

import (
	"net/http"

	"binsorter/internal/logger"
	"binsorter/internal/service/websocket"

	gws "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedHandler registers a viewer in the hub so it receives every new verdict.
// The read loop only exists to notice when the viewer goes away.
func FeedHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
					logger.Info("Feed viewer disconnected normally")
				} else {
					logger.Warning("Feed viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
