package middleware

import (
	"net/http"
	"time"

	"voyance-backend/internal/monitoring"

	"github.com/labstack/echo/v4"
)

func PrometheusMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			monitoring.RequestsTotal.WithLabelValues(
				c.Request().Method,
				path,
				http.StatusText(status),
			).Inc()
			monitoring.RequestDuration.WithLabelValues(
				c.Request().Method,
				path,
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
