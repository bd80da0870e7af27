package details

import (
	NotificationRoute "pesantrenku_backend/internals/features/home/notifications/route"
	"pesantrenku_backend/internals/features/home/notifications/repository"

	"github.com/gofiber/fiber/v2"
)

// /api/u/:school_id
func HomeUserRoutes(r fiber.Router, notifications *repository.NotificationRepository) {
	NotificationRoute.NotificationUserRoutes(r, notifications)
}
