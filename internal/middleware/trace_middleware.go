package middleware

import (
	"vidShare/pkg/trace"

	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// TraceID puts the caller's X-Request-ID, or a fresh uuid, on the request context and echoes it
// back in the response.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := trace.WithTraceID(req.Context(), req.Header.Get(HeaderRequestID))
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(HeaderRequestID, trace.TraceIDFromContext(ctx))
			return next(c)
		}
	}
}
