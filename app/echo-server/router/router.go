package router

import (
	"net/http"

	"vidShare/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, optionalAuth, authRequired echo.MiddlewareFunc) {
	reco := api.Group("/recommendations")

	reco.GET("", handler.Recommend, optionalAuth)
	reco.POST("/events", handler.RecordEvent, optionalAuth)
	reco.GET("/debug", handler.DebugRecommend, authRequired)
}

func SetupSearchRoutes(api *echo.Group, handler *rest.SearchHandler, authRequired, adminOnly echo.MiddlewareFunc) {
	api.GET("/search", handler.Search)
	api.POST("/internal/embeddings/:kind/:id/refresh", handler.RefreshEmbedding, authRequired, adminOnly)
}

func SetupAdminRoutes(api *echo.Group, handler *rest.AdminHandler, authRequired, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin/recommendations", authRequired, adminOnly)

	admin.GET("/config", handler.GetConfig)
	admin.PUT("/config", handler.UpsertConfig)
	admin.POST("/precompute", handler.Precompute)
}

func SetupHealthRoutes(e *echo.Echo, metricsHandler http.Handler) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
}
