package adviser

import (
	"errors"

	advisersvc "datahub-backend/internal/application/adviser"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for adviser endpoints.
type Handlers struct {
	Service *advisersvc.Service
}

// List GET /adviser?autocomplete=&is_active=
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := response.Pagination(c)
	f := advisersvc.ListFilter{
		Autocomplete: c.Query("autocomplete"),
		IsActive:     request.BoolQuery(c, "is_active"),
	}
	advisers, count, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list advisers")
	}
	return response.Page(c, count, limit, offset, advisers)
}

// Get GET /adviser/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	adviser, err := h.Service.Get(c.UserContext(), id)
	switch {
	case errors.Is(err, advisersvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, "get adviser")
	}
	return response.OK(c, adviser)
}
