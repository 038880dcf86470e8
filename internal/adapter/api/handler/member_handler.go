package handler

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/middleware"
	"rentchat/internal/usecase"
	"rentchat/pkg/response"
)

type MemberHandler struct {
	memberUseCase *usecase.MemberUseCase
}

func NewMemberHandler(memberUseCase *usecase.MemberUseCase) *MemberHandler {
	return &MemberHandler{
		memberUseCase: memberUseCase,
	}
}

type signupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Nickname   string `json:"nickname" validate:"required,min=2,max=20"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	ProfileURL string `json:"profile_url" validate:"omitempty,url"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *MemberHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	member, err := h.memberUseCase.Signup(c.Request().Context(), usecase.SignupInput{
		Email:      req.Email,
		Nickname:   req.Nickname,
		Password:   req.Password,
		ProfileURL: req.ProfileURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, member)
}

func (h *MemberHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.memberUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	c.Response().Header().Set("Authorization", "Bearer "+result.Token)
	return response.Success(c, result)
}

func (h *MemberHandler) GetMe(c echo.Context) error {
	member, err := h.memberUseCase.Me(c.Request().Context(), middleware.CurrentEmail(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, member)
}
