package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/middleware"
	ws "rentchat/internal/infrastructure/websocket"
	"rentchat/internal/usecase"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
	"rentchat/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	memberUseCase  *usecase.MemberUseCase
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any.
func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, memberUseCase *usecase.MemberUseCase, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		memberUseCase:  memberUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket authenticates with ?token= since browsers cannot set
// headers on the upgrade request.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()

	email, err := h.authMiddleware.EmailFromToken(ctx, c.QueryParam("token"))
	if err != nil {
		return response.Error(c, err)
	}

	member, err := h.memberUseCase.Me(ctx, email)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return response.Error(c, errors.Unauthorized("Unknown member", err))
		}
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed for %s: %v", member.ID, err)
		return nil
	}

	client := ws.NewClient(member.ID, conn)
	if !h.wsManager.Register(client) {
		logger.Warn("websocket manager stopped, closing connection for %s", member.ID)
		conn.Close()
		return nil
	}

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
