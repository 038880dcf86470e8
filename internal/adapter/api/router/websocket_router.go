package router

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/handler"
)

// SetupWebSocketRouter mounts /ws. Auth happens inside the handler via ?token=.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
