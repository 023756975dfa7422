package search

import (
	"bytes"
	"errors"
	"time"

	searchsvc "datahub-backend/internal/application/search"
	"datahub-backend/internal/pkg/request"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for search endpoints.
type Handlers struct {
	Service *searchsvc.Service
}

func parseBody(c *fiber.Ctx) (searchsvc.Request, bool) {
	body := map[string]interface{}{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return searchsvc.Request{}, false
		}
	}
	return searchsvc.ParseRequest(body), true
}

// Search POST /v4/search/:entity
func (h *Handlers) Search(c *fiber.Ctx) error {
	req, ok := parseBody(c)
	if !ok {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	res, err := h.Service.Search(c.UserContext(), c.Params("entity"), req)
	switch {
	case errors.Is(err, searchsvc.ErrUnknownEntity):
		return response.NotFound(c)
	case err != nil:
		return response.Failure(c, err, "search")
	}
	return response.OK(c, res)
}

// ExportCompanies POST /v4/search/company/export returns the matching companies as CSV.
func (h *Handlers) ExportCompanies(c *fiber.Ctx) error {
	req, ok := parseBody(c)
	if !ok {
		return response.Detail(c, fiber.StatusBadRequest, request.MsgMalformedBody)
	}
	var buf bytes.Buffer
	if err := h.Service.ExportCompanies(c.UserContext(), req, &buf); err != nil {
		return response.Failure(c, err, "export companies")
	}
	filename := "Data Hub - Companies - " + time.Now().UTC().Format("2006-01-02-15-04-05") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
