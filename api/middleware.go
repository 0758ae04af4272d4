package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	metricsvc "github.com/smartstudentv6/smart-student-notices/services/metrics"
)

// metricsMiddleware records request counts and durations per route.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			req, res := ctx.Request(), ctx.Response()
			path := ctx.Path()
			if path == "" {
				path = req.URL.Path
			}
			metricsvc.RequestCount.WithLabelValues(path, req.Method, strconv.Itoa(res.Status)).Inc()
			metricsvc.RequestDuration.WithLabelValues(path, req.Method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
