package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vidShare/business/bandit"
	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationHandler struct {
		validate    *validator.Validate
		recommender RecommendationService
		feedback    FeedbackService
	}

	RecommendationService interface {
		Recommend(ctx context.Context, userID *uint, count int) ([]domain.Video, error)
		DebugRecommend(ctx context.Context, userID uint, count int) ([]domain.DebugRecommendation, error)
	}

	FeedbackService interface {
		RecordEvent(ctx context.Context, ev bandit.Event) (domain.BanditStats, error)
	}

	RecommendQuery struct {
		N int `query:"n" validate:"gte=0"`
	}

	EventRequest struct {
		VideoID   uint64         `json:"video_id" validate:"required"`
		Clicked   bool           `json:"clicked"`
		WatchTime float64        `json:"watch_time" validate:"gte=0"` // seconds
		Context   map[string]any `json:"context"`
	}
)

func NewRecommendationHandler(reco RecommendationService, feedback FeedbackService) *RecommendationHandler {
	return &RecommendationHandler{
		validate:    validator.New(),
		recommender: reco,
		feedback:    feedback,
	}
}

// GET /api/v1/recommendations?n=20
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var userID *uint
	if uid, ok := c.Get("user_id").(uint); ok {
		userID = &uid
	}

	videos, err := h.recommender.Recommend(c.Request().Context(), userID, q.N)
	if err != nil {
		logger.Error("recommend_failed", "trace_id", trace.TraceIDFromContext(c.Request().Context()), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(videos))
}

// POST /api/v1/recommendations/events
func (h *RecommendationHandler) RecordEvent(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ev := bandit.Event{
		VideoID:   req.VideoID,
		Clicked:   req.Clicked,
		WatchTime: time.Duration(req.WatchTime * float64(time.Second)),
		Context:   req.Context,
	}
	if uid, ok := c.Get("user_id").(uint); ok {
		ev.UserID = uid
	}

	stats, err := h.feedback.RecordEvent(c.Request().Context(), ev)
	if err != nil {
		if errors.Is(err, bandit.ErrVideoNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(stats))
}

// GET /api/v1/recommendations/debug?n=10
func (h *RecommendationHandler) DebugRecommend(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.N <= 0 {
		q.N = 10
	}

	recs, err := h.recommender.DebugRecommend(c.Request().Context(), userID, q.N)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}
