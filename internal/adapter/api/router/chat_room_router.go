package router

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/handler"
	"rentchat/internal/adapter/api/middleware"
)

func SetupChatRoomRouter(v1 *echo.Group, chatRoomHandler *handler.ChatRoomHandler, authMiddleware *middleware.AuthMiddleware) {
	rooms := v1.Group("/chat-rooms")
	rooms.Use(authMiddleware.Authenticate)

	rooms.POST("", chatRoomHandler.CreateChatRoom)     // POST /api/v1/chat-rooms - open or create
	rooms.GET("", chatRoomHandler.ListChatRooms)       // GET /api/v1/chat-rooms?page=&size=
	rooms.GET("/:id", chatRoomHandler.GetChatRoom)     // GET /api/v1/chat-rooms/:id - marks counterpart messages read
	rooms.POST("/:id/chats", chatRoomHandler.SendChat) // POST /api/v1/chat-rooms/:id/chats
}
