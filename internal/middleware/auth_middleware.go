package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/utils"

	"github.com/labstack/echo/v4"
)

type authFailure struct {
	status  int
	message string
}

// authenticate parses the bearer token and stores user_id and role on c. It returns nil when
// the caller is identified or sent no Authorization header at all.
func authenticate(c echo.Context, secret string) *authFailure {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return &authFailure{http.StatusUnauthorized, "Invalid authorization format"}
	}
	tokenString := tokenParts[1]

	claims, err := utils.ParseJWT(tokenString, secret)
	if err != nil {
		logger.Debug("auth_token_rejected", "error", err)
		return &authFailure{http.StatusUnauthorized, "Invalid token"}
	}

	userIDUint, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		logger.Warn("auth_invalid_user_id", "user_id", claims.UserID, "error", err)
		return &authFailure{http.StatusForbidden, "Invalid user ID in token"}
	}

	c.Set("user_id", uint(userIDUint))
	c.Set("role", claims.Role)
	return nil
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Missing authorization header"})
			}
			if f := authenticate(c, secret); f != nil {
				return c.JSON(f.status, echo.Map{"message": f.message})
			}
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous requests through.
// A token that is sent but invalid is still rejected.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if f := authenticate(c, secret); f != nil {
				return c.JSON(f.status, echo.Map{"message": f.message})
			}
			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := c.Get("role").(string)
			if !ok || !strings.EqualFold(roleStr, domain.RoleAdmin) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Admin access required"})
			}

			return next(c)
		}
	}
}
