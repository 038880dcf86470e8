package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
	"rentchat/pkg/response"
)

// EmailKey is the echo context key holding the authenticated member email.
const EmailKey = "email"

// TokenVerifier resolves a bearer token to the member email it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		email, err := m.verifier.Verify(c.Request().Context(), parts[1])
		if err != nil {
			logger.Debug("rejected bearer token: %v", err)
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(EmailKey, email)
		return next(c)
	}
}

// EmailFromToken verifies a raw token, for transports that cannot send headers.
func (m *AuthMiddleware) EmailFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthorized("Token is required", nil)
	}
	email, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return email, nil
}

// CurrentEmail returns the email stored by Authenticate.
func CurrentEmail(c echo.Context) string {
	email, _ := c.Get(EmailKey).(string)
	return email
}
