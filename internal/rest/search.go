package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"vidShare/business/embedding"
	"vidShare/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	SearchHandler struct {
		validate *validator.Validate
		search   SearchService
	}

	SearchService interface {
		Search(ctx context.Context, query string, kinds []domain.ContentKind, limit int) ([]domain.SearchResult, error)
		RefreshByID(ctx context.Context, kind domain.ContentKind, id uint64) error
	}

	SearchQuery struct {
		Q     string `query:"q" validate:"required,max=500"`
		Kinds string `query:"kinds"`
		Limit int    `query:"limit" validate:"gte=0,lte=100"`
	}
)

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{
		validate: validator.New(),
		search:   svc,
	}
}

// GET /api/v1/search?q=street+food&kinds=video,post&limit=10
func (h *SearchHandler) Search(c echo.Context) error {
	var q SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	kinds, err := domain.ParseContentKinds(q.Kinds)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	results, err := h.search.Search(c.Request().Context(), q.Q, kinds, q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

// POST /api/v1/internal/embeddings/:kind/:id/refresh
func (h *SearchHandler) RefreshEmbedding(c echo.Context) error {
	kind := domain.ContentKind(c.Param("kind"))
	if !kind.Searchable() {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid kind"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid id"})
	}

	if err := h.search.RefreshByID(c.Request().Context(), kind, id); err != nil {
		switch {
		case errors.Is(err, embedding.ErrEntityNotFound):
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		case errors.Is(err, embedding.ErrEncoderUnavailable):
			return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{"kind": kind, "id": id}))
}
