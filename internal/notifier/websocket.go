package notifier

import (
	"net/http"

	"auction-core/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchHandler returns a gin handler that upgrades the connection and streams
// the auction's events over websocket until either side disconnects. Events
// missed while disconnected are gone; the client re-fetches current state.
func WatchHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Warn("notifier: websocket upgrade failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
			return
		}

		sub := hub.Subscribe(auctionID)

		// Reader loop detects client disconnect and tears the stream down.
		go func() {
			defer sub.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		// Writer loop owns the connection. Subscription order is delivery order.
		go func() {
			defer conn.Close()
			for event := range sub.C {
				if err := conn.WriteJSON(event); err != nil {
					utils.Warn("notifier: websocket write failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
					sub.Close()
					return
				}
			}
		}()
	}
}
