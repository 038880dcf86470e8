package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEchoMiddlewareCountsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(EchoMiddleware())
	e.GET("/api/v1/rentals/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	counter := HttpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/rentals/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"r1", "r2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rentals/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
