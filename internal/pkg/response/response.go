package response

import (
	"errors"
	"net/url"
	"strconv"

	"datahub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Standard detail messages.
const (
	MsgNotFound         = "Not found."
	MsgForbidden        = "You do not have permission to perform this action."
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInternal         = "Internal Server Error"
)

// PageBody is the list envelope.
type PageBody struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// OK sends 200 with body as-is.
func OK(c *fiber.Ctx, body interface{}) error {
	return c.Status(fiber.StatusOK).JSON(body)
}

// Created sends 201 with body as-is.
func Created(c *fiber.Ctx, body interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

// Detail sends {"detail": message}.
func Detail(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{"detail": message})
}

func NotFound(c *fiber.Ctx) error {
	return Detail(c, fiber.StatusNotFound, MsgNotFound)
}

func Forbidden(c *fiber.Ctx) error {
	return Detail(c, fiber.StatusForbidden, MsgForbidden)
}

// Unauthorized sends 401 in the same shape as other errors.
func Unauthorized(c *fiber.Ctx) error {
	return Detail(c, fiber.StatusUnauthorized, MsgNotAuthenticated)
}

func Internal(c *fiber.Ctx) error {
	return Detail(c, fiber.StatusInternalServerError, MsgInternal)
}

// Invalid sends 400 with {field: [messages]}.
func Invalid(c *fiber.Ctx, fields map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fields)
}

// Failure sends validation errors as 400. Anything else is logged and reported as 500.
func Failure(c *fiber.Ctx, err error, msg string) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return Invalid(c, errs)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)
	return Internal(c)
}

// Error sends {"error": message}.
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{"error": message})
}

// Page sends a limit/offset paginated list, building next/previous from the request URL.
func Page(c *fiber.Ctx, count int64, limit, offset int, results interface{}) error {
	body := PageBody{Count: count, Results: results}
	if int64(offset+limit) < count {
		body.Next = pageURL(c, limit, offset+limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		body.Previous = pageURL(c, limit, prev)
	}
	return OK(c, body)
}

func pageURL(c *fiber.Ctx, limit, offset int) *string {
	u, err := url.Parse(c.BaseURL() + c.OriginalURL())
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// Pagination reads limit/offset query params with defaults.
func Pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 100)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NumberedPage sends {"next", "results"} for page-number pagination.
func NumberedPage(c *fiber.Ctx, page int, hasNext bool, results interface{}) error {
	var next *string
	if hasNext {
		u, err := url.Parse(c.BaseURL() + c.OriginalURL())
		if err == nil {
			q := u.Query()
			q.Set("page", strconv.Itoa(page+1))
			u.RawQuery = q.Encode()
			s := u.String()
			next = &s
		}
	}
	return OK(c, fiber.Map{"next": next, "results": results})
}
