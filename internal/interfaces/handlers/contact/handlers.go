package contact

import (
	"errors"

	contactsvc "datahub-backend/internal/application/contact"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for contact endpoints.
type Handlers struct {
	Service *contactsvc.Service
}

// List GET /v3/contact?company_id=&name=&archived=
func (h *Handlers) List(c *fiber.Ctx) error {
	companyID, ok := request.UUIDQuery(c, "company_id")
	if !ok {
		return response.Invalid(c, map[string][]string{"company_id": {request.MsgInvalidUUID}})
	}
	limit, offset := response.Pagination(c)
	f := contactsvc.ListFilter{
		CompanyID: companyID,
		Name:      c.Query("name"),
		Archived:  request.BoolQuery(c, "archived"),
	}
	contacts, count, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list contacts")
	}
	return response.Page(c, count, limit, offset, contacts)
}

// Create POST /v3/contact
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in contactsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	contact, err := h.Service.Create(c.UserContext(), in, request.Actor(c))
	if err != nil {
		return response.Failure(c, err, "create contact")
	}
	return response.Created(c, contact)
}

// Get GET /v3/contact/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	contact, err := h.Service.Get(c.UserContext(), id)
	return respond(c, contact, err, "get contact")
}

// Update PATCH /v3/contact/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var in contactsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	contact, err := h.Service.Update(c.UserContext(), id, in, request.Actor(c))
	return respond(c, contact, err, "update contact")
}

// Archive POST /v3/contact/:id/archive
func (h *Handlers) Archive(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	contact, err := h.Service.Archive(c.UserContext(), id, request.Actor(c))
	return respond(c, contact, err, "archive contact")
}

func respond(c *fiber.Ctx, body interface{}, err error, msg string) error {
	switch {
	case errors.Is(err, contactsvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, msg)
	}
	return response.OK(c, body)
}
