package exportwin

import (
	"errors"

	exportwinsvc "datahub-backend/internal/application/exportwin"
	"datahub-backend/internal/middleware"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const msgResent = "Email has successfully been re-sent"

// Handlers holds dependencies for export win endpoints.
type Handlers struct {
	Service *exportwinsvc.Service
}

var confirmedValues = map[string]bool{"": true, "true": true, "false": true, "null": true}

// List GET /v4/export-win?confirmed=true|false|null
func (h *Handlers) List(c *fiber.Ctx) error {
	confirmed := c.Query("confirmed")
	if !confirmedValues[confirmed] {
		return response.Invalid(c, map[string][]string{"confirmed": {"Select a valid choice."}})
	}
	limit, offset := response.Pagination(c)
	wins, count, err := h.Service.List(c.UserContext(), actor(c), exportwinsvc.ListFilter{Confirmed: confirmed}, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list export wins")
	}
	return response.Page(c, count, limit, offset, wins)
}

// Create POST /v4/export-win
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in exportwinsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	win, err := h.Service.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return response.Failure(c, err, "create export win")
	}
	return response.Created(c, win)
}

// Get GET /v4/export-win/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	win, err := h.Service.Get(c.UserContext(), id, actor(c))
	return respond(c, win, err, "get export win")
}

// Update PATCH /v4/export-win/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var in exportwinsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	win, err := h.Service.Update(c.UserContext(), id, in, actor(c))
	return respond(c, win, err, "update export win")
}

// Resend POST /v4/export-win/:id/resend emails fresh review links for an unanswered win.
func (h *Handlers) Resend(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	err := h.Service.Resend(c.UserContext(), id, actor(c))
	return respond(c, fiber.Map{"message": msgResent}, err, "resend export win")
}

// SoftDelete POST /v4/export-win/:id/soft-delete
func (h *Handlers) SoftDelete(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	win, err := h.Service.SoftDelete(c.UserContext(), id, actor(c))
	return respond(c, win, err, "soft delete export win")
}

// Undelete POST /v4/export-win/:id/undelete
func (h *Handlers) Undelete(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	win, err := h.Service.Undelete(c.UserContext(), id, actor(c))
	return respond(c, win, err, "undelete export win")
}

// actor is the session adviser. Routes sit behind RequireAuth, so uuid.Nil never matches a win.
func actor(c *fiber.Ctx) uuid.UUID {
	id, _ := middleware.CurrentAdviserID(c)
	return id
}

func respond(c *fiber.Ctx, body interface{}, err error, msg string) error {
	switch {
	case errors.Is(err, exportwinsvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, msg)
	}
	return response.OK(c, body)
}
