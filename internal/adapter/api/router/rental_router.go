package router

import (
	"github.com/labstack/echo/v4"

	"rentchat/internal/adapter/api/handler"
	"rentchat/internal/adapter/api/middleware"
)

func SetupRentalRouter(v1 *echo.Group, rentalHandler *handler.RentalHandler, authMiddleware *middleware.AuthMiddleware) {
	rentals := v1.Group("/rentals")

	// Listings are public to read.
	rentals.GET("/:id", rentalHandler.GetRental)

	rentals.POST("", rentalHandler.CreateRental, authMiddleware.Authenticate)
	rentals.PUT("/:id", rentalHandler.UpdateRental, authMiddleware.Authenticate)
	rentals.DELETE("/:id", rentalHandler.DeleteRental, authMiddleware.Authenticate)
}
