package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentchat_ws_connections",
		Help: "Current number of active websocket connections",
	})
	ChatMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentchat_chat_messages_total",
		Help: "Total number of chat messages sent",
	})
	ChatRoomsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentchat_chat_room_requests_total",
		Help: "Total number of successful chat room open-or-create requests",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, ChatMessagesTotal, ChatRoomsOpenedTotal, HttpRequestsTotal, HttpRequestDuration)
}

// EchoMiddleware records a request counter and latency per route template.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   path,
				"status": strconv.Itoa(c.Response().Status),
			}
			HttpRequestsTotal.With(labels).Inc()
			HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
