package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/tradekeeper/trade_keeper_app/internal/realtime"
)

// registerChannelRoutes registers the websocket endpoint. Auth runs as normal
// middleware before the upgrade; the token may arrive via the "token" query
// parameter since browser websocket clients cannot set headers.
func registerChannelRoutes(rg *gin.RouterGroup, server *realtime.ChannelServer) {
	rg.GET("/ws", func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		server.ServeWS(c.Writer, c.Request, userID)
	})
}
