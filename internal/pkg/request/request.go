// Package request reads path and query parameters for the HTTP handlers.
package request

import (
	"strconv"

	"datahub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	MsgInvalidUUID   = "Must be a valid UUID."
	MsgMalformedBody = "Malformed request."
)

// UUIDParam parses a path parameter. ok is false when it is missing or malformed.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// UUIDQuery parses an optional query parameter. ok is false only when it is present but malformed.
func UUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// BoolQuery parses an optional boolean query parameter; anything unparseable counts as absent.
func BoolQuery(c *fiber.Ctx, name string) *bool {
	b, err := strconv.ParseBool(c.Query(name))
	if err != nil {
		return nil
	}
	return &b
}

// Actor returns the session adviser id, nil when nobody is logged in.
func Actor(c *fiber.Ctx) *uuid.UUID {
	id, ok := middleware.CurrentAdviserID(c)
	if !ok {
		return nil
	}
	return &id
}
