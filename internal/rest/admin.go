package rest

import (
	"context"
	"errors"
	"net/http"

	"vidShare/business/precompute"
	"vidShare/business/recommender"
	"vidShare/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	AdminHandler struct {
		cfgRepo   recommender.ConfigRepository
		defaults  recommender.Settings
		scheduler PrecomputeRunner
	}

	PrecomputeRunner interface {
		RunCycle(ctx context.Context) (precompute.Result, error)
	}
)

func NewAdminHandler(cfgRepo recommender.ConfigRepository, defaults recommender.Settings, scheduler PrecomputeRunner) *AdminHandler {
	return &AdminHandler{
		cfgRepo:   cfgRepo,
		defaults:  defaults,
		scheduler: scheduler,
	}
}

// GET /api/v1/admin/recommendations/config
func (h *AdminHandler) GetConfig(c echo.Context) error {
	cfg, ok, err := h.cfgRepo.GetConfig(c.Request().Context(), domain.DefaultRecommenderConfigName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !ok {
		// nothing stored yet, report the values in effect
		cfg = domain.RecommenderConfig{
			Name:             domain.DefaultRecommenderConfigName,
			ExplorationRate:  h.defaults.ExplorationRate,
			PopularityWeight: h.defaults.PopularityWeight,
			NoveltyWeight:    h.defaults.NoveltyWeight,
		}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cfg))
}

// PUT /api/v1/admin/recommendations/config
// body: { "exploration_rate": 0.1, "popularity_weight": 0.3, "novelty_weight": 0.2 }
func (h *AdminHandler) UpsertConfig(c echo.Context) error {
	var body domain.RecommenderConfig
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	body.Name = domain.DefaultRecommenderConfigName

	if err := recommender.ValidateConfig(body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.cfgRepo.UpsertConfig(c.Request().Context(), body); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(body))
}

// POST /api/v1/admin/recommendations/precompute
func (h *AdminHandler) Precompute(c echo.Context) error {
	res, err := h.scheduler.RunCycle(c.Request().Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(res))
}
