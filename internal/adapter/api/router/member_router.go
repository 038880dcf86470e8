package router

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/handler"
	"rentchat/internal/adapter/api/middleware"
)

func SetupMemberRouter(v1 *echo.Group, memberHandler *handler.MemberHandler, authMiddleware *middleware.AuthMiddleware) {
	members := v1.Group("/members")
	members.POST("/signup", memberHandler.Signup)
	members.POST("/login", memberHandler.Login)
	members.GET("/me", memberHandler.GetMe, authMiddleware.Authenticate)
}
