package company

import (
	"errors"

	companysvc "datahub-backend/internal/application/company"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for company endpoints.
type Handlers struct {
	Service *companysvc.Service
}

type archiveRequest struct {
	Reason string `json:"reason"`
}

type exportDetailRequest struct {
	ExportCountries []companysvc.ExportCountry `json:"export_countries"`
}

// List GET /v4/company?name=&archived=&global_headquarters=&sortby=
func (h *Handlers) List(c *fiber.Ctx) error {
	ghq, ok := request.UUIDQuery(c, "global_headquarters")
	if !ok {
		return response.Invalid(c, map[string][]string{"global_headquarters": {request.MsgInvalidUUID}})
	}
	limit, offset := response.Pagination(c)
	f := companysvc.ListFilter{
		Name:                 c.Query("name"),
		Archived:             request.BoolQuery(c, "archived"),
		GlobalHeadquartersID: ghq,
		SortBy:               c.Query("sortby"),
	}
	companies, count, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Failure(c, err, "list companies")
	}
	return response.Page(c, count, limit, offset, companies)
}

// Create POST /v4/company
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in companysvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	created, err := h.Service.Create(c.UserContext(), in, request.Actor(c))
	if err != nil {
		return response.Failure(c, err, "create company")
	}
	detail, err := h.Service.Get(c.UserContext(), created.ID)
	if err != nil {
		return response.Failure(c, err, "load company")
	}
	return response.Created(c, detail)
}

// Get GET /v4/company/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	detail, err := h.Service.Get(c.UserContext(), id)
	return h.respond(c, detail, err, "get company")
}

// Update PATCH /v4/company/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var in companysvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	if _, err := h.Service.Update(c.UserContext(), id, in, request.Actor(c)); err != nil {
		return h.respond(c, nil, err, "update company")
	}
	detail, err := h.Service.Get(c.UserContext(), id)
	return h.respond(c, detail, err, "load company")
}

// Archive POST /v4/company/:id/archive with {"reason": "..."}.
func (h *Handlers) Archive(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var req archiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	company, err := h.Service.Archive(c.UserContext(), id, req.Reason, request.Actor(c))
	return h.respond(c, company, err, "archive company")
}

// Unarchive POST /v4/company/:id/unarchive
func (h *Handlers) Unarchive(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	company, err := h.Service.Unarchive(c.UserContext(), id, request.Actor(c))
	return h.respond(c, company, err, "unarchive company")
}

// UpdateExportDetail PATCH /v4/company/:id/export-detail replaces the export countries.
func (h *Handlers) UpdateExportDetail(c *fiber.Ctx) error {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return response.NotFound(c)
	}
	var req exportDetailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	if err := h.Service.UpdateExportDetails(c.UserContext(), id, req.ExportCountries, request.Actor(c)); err != nil {
		return h.respond(c, nil, err, "update export countries")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) respond(c *fiber.Ctx, body interface{}, err error, msg string) error {
	switch {
	case errors.Is(err, companysvc.ErrNotFound):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, msg)
	}
	return response.OK(c, body)
}
