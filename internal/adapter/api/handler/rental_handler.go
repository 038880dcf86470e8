package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/middleware"
	"rentchat/internal/usecase"
	"rentchat/pkg/response"
)

type RentalHandler struct {
	rentalUseCase *usecase.RentalUseCase
}

func NewRentalHandler(rentalUseCase *usecase.RentalUseCase) *RentalHandler {
	return &RentalHandler{
		rentalUseCase: rentalUseCase,
	}
}

type rentalRequest struct {
	Title     string  `json:"title" validate:"required,max=100"`
	Content   string  `json:"content" validate:"max=5000"`
	Category  string  `json:"category" validate:"required"`
	RentalFee int64   `json:"rental_fee" validate:"gte=0"`
	Deposit   int64   `json:"deposit" validate:"gte=0"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	District  string  `json:"district"`
}

func (r rentalRequest) input() usecase.RentalInput {
	return usecase.RentalInput{
		Title:     r.Title,
		Content:   r.Content,
		Category:  r.Category,
		RentalFee: r.RentalFee,
		Deposit:   r.Deposit,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		District:  r.District,
	}
}

func (h *RentalHandler) bind(c echo.Context) (*rentalRequest, error) {
	var req rentalRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *RentalHandler) CreateRental(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return response.Error(c, err)
	}

	rental, err := h.rentalUseCase.CreateRental(c.Request().Context(), middleware.CurrentEmail(c), req.input())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, rental)
}

func (h *RentalHandler) GetRental(c echo.Context) error {
	rental, err := h.rentalUseCase.GetRental(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rental)
}

func (h *RentalHandler) UpdateRental(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return response.Error(c, err)
	}

	rental, err := h.rentalUseCase.UpdateRental(c.Request().Context(), middleware.CurrentEmail(c), c.Param("id"), req.input())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rental)
}

func (h *RentalHandler) DeleteRental(c echo.Context) error {
	if err := h.rentalUseCase.DeleteRental(c.Request().Context(), middleware.CurrentEmail(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
