package dataset

import (
	datasetsvc "datahub-backend/internal/application/dataset"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 1000

// Handlers serves the export win datasets in the page-number layout the legacy service used.
type Handlers struct {
	Service *datasetsvc.Service
}

func pageParams(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size = c.QueryInt("page_size", datasetsvc.DefaultPageSize)
	if size <= 0 || size > maxPageSize {
		size = datasetsvc.DefaultPageSize
	}
	return page, size
}

// Wins GET /v4/dataset/export-wins-dataset
func (h *Handlers) Wins(c *fiber.Ctx) error {
	page, size := pageParams(c)
	p, err := h.Service.Wins(c.UserContext(), page, size)
	if err != nil {
		return response.Failure(c, err, "export wins dataset")
	}
	return response.NumberedPage(c, page, p.HasNext, p.Results)
}

// Breakdowns GET /v4/dataset/export-wins-breakdowns-dataset
func (h *Handlers) Breakdowns(c *fiber.Ctx) error {
	page, size := pageParams(c)
	p, err := h.Service.Breakdowns(c.UserContext(), page, size)
	if err != nil {
		return response.Failure(c, err, "export win breakdowns dataset")
	}
	return response.NumberedPage(c, page, p.HasNext, p.Results)
}

// Advisers GET /v4/dataset/export-wins-advisers-dataset
func (h *Handlers) Advisers(c *fiber.Ctx) error {
	page, size := pageParams(c)
	p, err := h.Service.Advisers(c.UserContext(), page, size)
	if err != nil {
		return response.Failure(c, err, "export win advisers dataset")
	}
	return response.NumberedPage(c, page, p.HasNext, p.Results)
}
