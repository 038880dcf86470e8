package router

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/handler"
	"rentchat/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, h handler.Handlers, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e, h.Health)

	v1 := e.Group("/api/v1")
	SetupMemberRouter(v1, h.Member, authMiddleware)
	SetupRentalRouter(v1, h.Rental, authMiddleware)
	SetupChatRoomRouter(v1, h.ChatRoom, authMiddleware)

	SetupWebSocketRouter(e, h.WebSocket)
}
