package interaction

import (
	"errors"

	interactionsvc "datahub-backend/internal/application/interaction"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for interaction endpoints.
type Handlers struct {
	Service *interactionsvc.Service
}

// List GET /v3/interaction?company_id=&contact_id=&investment_project_id=&kind=
func (h *Handlers) List(c *fiber.Ctx) error {
	var f interactionsvc.ListFilter
	invalid := map[string][]string{}
	for name, dst := range map[string]**uuid.UUID{
		"company_id":            &f.CompanyID,
		"contact_id":            &f.ContactID,
		"investment_project_id": &f.InvestmentProjectID,
	} {
		id, ok := request.UUIDQuery(c, name)
		if !ok {
			invalid[name] = []string{request.MsgInvalidUUID}
			continue
		}
		*dst = id
	}
	if len(invalid) > 0 {
		return response.Invalid(c, invalid)
	}
	f.Kind = c.Query("kind")

	limit, offset := response.Pagination(c)
	interactions, count, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list interactions")
	}
	return response.Page(c, count, limit, offset, interactions)
}

// Create POST /v3/interaction
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in interactionsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	detail, err := h.Service.Create(c.UserContext(), in, request.Actor(c))
	if err != nil {
		return response.Failure(c, err, "create interaction")
	}
	return response.Created(c, detail)
}

// Get GET /v3/interaction/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	detail, err := h.Service.Get(c.UserContext(), id)
	return respond(c, detail, err, "get interaction")
}

// Update PATCH /v3/interaction/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var in interactionsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	detail, err := h.Service.Update(c.UserContext(), id, in, request.Actor(c))
	return respond(c, detail, err, "update interaction")
}

func respond(c *fiber.Ctx, body interface{}, err error, msg string) error {
	switch {
	case errors.Is(err, interactionsvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, msg)
	}
	return response.OK(c, body)
}
