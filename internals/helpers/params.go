package helper

import (
	"reflect"
	"strings"

	ierr "pesantrenku_backend/internals/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func lenOf(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 0
	}
}

// ParseUUIDParam reads a path param as uuid; ErrValidation when malformed.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ierr.WithError(err).
			WithHintf("%s tidak valid", name).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

// QueryPtr returns nil for an absent or blank query value.
func QueryPtr(c *fiber.Ctx, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

// ActorID is the user id the auth middleware put in locals, if any.
func ActorID(c *fiber.Ctx) *uuid.UUID {
	s, _ := c.Locals("user_id").(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
