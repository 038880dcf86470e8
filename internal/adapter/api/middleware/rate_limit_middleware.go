package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"rentchat/internal/infrastructure/ratelimit"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
	"rentchat/pkg/response"
)

// RateLimit throttles requests per client IP with the limiter's http budget.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, wait := limiter.Allow(ip, ratelimit.ActionHTTP)
			if !allowed {
				retryAfter := int(wait.Seconds()) + 1
				logger.Warn("RATE LIMIT: blocked request from IP %s (retry in %v)", ip, wait)

				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return response.Error(c, errors.New(
					errors.CodeTooManyRequests,
					fmt.Sprintf("Rate limit exceeded, retry in %d seconds", retryAfter),
					http.StatusTooManyRequests,
					nil,
				))
			}

			return next(c)
		}
	}
}
