package investment

import (
	"errors"

	investmentsvc "datahub-backend/internal/application/investment"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for investment project endpoints.
type Handlers struct {
	Service *investmentsvc.Service
}

// List GET /v3/investment?investor_company_id=&stage=&status=
func (h *Handlers) List(c *fiber.Ctx) error {
	companyID, ok := request.UUIDQuery(c, "investor_company_id")
	if !ok {
		return response.Invalid(c, map[string][]string{"investor_company_id": {request.MsgInvalidUUID}})
	}
	limit, offset := response.Pagination(c)
	f := investmentsvc.ListFilter{
		InvestorCompanyID: companyID,
		Stage:             c.Query("stage"),
		Status:            c.Query("status"),
	}
	projects, count, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list investment projects")
	}
	return response.Page(c, count, limit, offset, projects)
}

// Create POST /v3/investment
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in investmentsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	project, err := h.Service.Create(c.UserContext(), in, request.Actor(c))
	if err != nil {
		return response.Failure(c, err, "create investment project")
	}
	return response.Created(c, project)
}

// Get GET /v3/investment/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	project, err := h.Service.Get(c.UserContext(), id)
	return respond(c, project, err, "get investment project")
}

// Update PATCH /v3/investment/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var in investmentsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	project, err := h.Service.Update(c.UserContext(), id, in, request.Actor(c))
	return respond(c, project, err, "update investment project")
}

// SPI GET /v4/investment/:id/spi
func (h *Handlers) SPI(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	report, err := h.Service.SPI(c.UserContext(), id)
	return respond(c, report, err, "spi report")
}

// StageLog GET /v3/investment/:id/stage-log
func (h *Handlers) StageLog(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	logs, err := h.Service.StageLog(c.UserContext(), id)
	return respond(c, logs, err, "stage log")
}

func respond(c *fiber.Ctx, body interface{}, err error, msg string) error {
	switch {
	case errors.Is(err, investmentsvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, msg)
	}
	return response.OK(c, body)
}
