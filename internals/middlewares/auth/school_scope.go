package auth

import (
	helper "pesantrenku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const actorKey = "actor"

// Actor is the caller of a school-scoped route.
type Actor struct {
	UserID   uuid.UUID
	Role     string
	SchoolID uuid.UUID
}

// SchoolScope admits a request when the token covers the :param school and
// carries one of roles. Runs after AuthMiddleware; the resolved Actor is kept
// in locals (plus school_id for older handlers).
func SchoolScope(param, forbidden string, roles ...string) fiber.Handler {
	if forbidden == "" {
		forbidden = "Anda tidak memiliki akses ke resource ini"
	}
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("userRole").(string)
		userID, err := uuid.Parse(stringLocal(c, "user_id"))
		if role == "" || err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - informasi role tidak ada")
		}

		schoolID, err := uuid.Parse(c.Params(param))
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "school_id tidak valid")
		}
		ids, _ := c.Locals("school_ids").([]string)
		if !lo.Contains(ids, schoolID.String()) {
			return helper.JsonError(c, fiber.StatusForbidden, "Anda tidak memiliki akses ke sekolah ini")
		}
		if !lo.Contains(roles, role) {
			return helper.JsonError(c, fiber.StatusForbidden, forbidden)
		}

		c.Locals(actorKey, Actor{UserID: userID, Role: role, SchoolID: schoolID})
		c.Locals("school_id", schoolID.String())
		return c.Next()
	}
}

// ActorFrom returns the actor stored by SchoolScope.
func ActorFrom(c *fiber.Ctx) (Actor, bool) {
	a, ok := c.Locals(actorKey).(Actor)
	return a, ok
}

func stringLocal(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}
