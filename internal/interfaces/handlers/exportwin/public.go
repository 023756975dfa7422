package exportwin

import (
	exportwinsvc "datahub-backend/internal/application/exportwin"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GetReview GET /v4/export-win/review/:token_pk is open to the customer holding the link.
func (h *Handlers) GetReview(c *fiber.Ctx) error {
	tokenID, ok := request.UUIDParam(c, "token_pk")
	if !ok {
		return response.NotFound(c)
	}
	review, err := h.Service.GetCustomerResponse(c.UserContext(), tokenID)
	return respond(c, review, err, "get customer response")
}

// UpdateReview PATCH /v4/export-win/review/:token_pk records the answer and expires the link.
func (h *Handlers) UpdateReview(c *fiber.Ctx) error {
	tokenID, ok := request.UUIDParam(c, "token_pk")
	if !ok {
		return response.NotFound(c)
	}
	var in exportwinsvc.PublicInput
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	review, err := h.Service.UpdateCustomerResponse(c.UserContext(), tokenID, in)
	return respond(c, review, err, "update customer response")
}

// ReviewNotAllowed answers every other method on the review URL.
func (h *Handlers) ReviewNotAllowed(c *fiber.Ctx) error {
	return response.NotFound(c)
}
