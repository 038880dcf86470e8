package handler

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/middleware"
	"rentchat/internal/infrastructure/metrics"
	"rentchat/internal/usecase"
	"rentchat/pkg/response"
	"rentchat/pkg/utils"
)

type ChatRoomHandler struct {
	chatRoomUseCase *usecase.ChatRoomUseCase
}

func NewChatRoomHandler(chatRoomUseCase *usecase.ChatRoomUseCase) *ChatRoomHandler {
	return &ChatRoomHandler{
		chatRoomUseCase: chatRoomUseCase,
	}
}

type createChatRoomRequest struct {
	RentalID       string `json:"rental_id" validate:"required"`
	SellerNickname string `json:"seller_nickname" validate:"required"`
}

type sendChatRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// CreateChatRoom returns the caller's room for a rental, creating it first if needed.
func (h *ChatRoomHandler) CreateChatRoom(c echo.Context) error {
	var req createChatRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	roomID, created, err := h.chatRoomUseCase.OpenOrCreateRoom(c.Request().Context(), middleware.CurrentEmail(c), usecase.CreateRoomInput{
		RentalID:       req.RentalID,
		SellerNickname: req.SellerNickname,
	})
	if err != nil {
		return response.Error(c, err)
	}

	body := map[string]string{"chat_room_id": roomID}
	if !created {
		return response.Success(c, body)
	}
	metrics.ChatRoomsOpenedTotal.Inc()
	return response.Created(c, body)
}

func (h *ChatRoomHandler) ListChatRooms(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	rooms, err := h.chatRoomUseCase.ListRooms(c.Request().Context(), middleware.CurrentEmail(c), p.Page, p.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

// GetChatRoom opens a room: counterpart messages are marked read before the page is returned.
func (h *ChatRoomHandler) GetChatRoom(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	detail, err := h.chatRoomUseCase.OpenRoom(c.Request().Context(), middleware.CurrentEmail(c), c.Param("id"), p.Page, p.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, detail)
}

func (h *ChatRoomHandler) SendChat(c echo.Context) error {
	var req sendChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatRoomUseCase.SendMessage(c.Request().Context(), middleware.CurrentEmail(c), c.Param("id"), req.Message)
	if err != nil {
		return response.Error(c, err)
	}
	metrics.ChatMessagesTotal.Inc()

	return response.Created(c, chat)
}
