package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})
)

func Init() {
	prometheus.MustRegister(RequestDuration, RequestTotal)
}

// Middleware records latency and status per matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}
