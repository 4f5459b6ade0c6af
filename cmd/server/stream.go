package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/voltmark/intraday/internal/sim"
	"github.com/voltmark/intraday/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type streamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// tradeStreamHandler upgrades the connection to a websocket and forwards
// every trade the live run executes until the client disconnects.
func tradeStreamHandler(hub *sim.Hub[types.Trade]) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(32)
		defer hub.Unsubscribe(sub)

		// Drain client frames so a disconnect is noticed even while no
		// trades are flowing.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case trade, ok := <-sub.C():
				if !ok {
					return
				}
				msg := streamMessage{Type: "trade", Data: trade}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}
}
