package route

import (
	"pesantrenku_backend/internals/features/home/notifications/controller"
	"pesantrenku_backend/internals/features/home/notifications/repository"

	"github.com/gofiber/fiber/v2"
)

// NotificationUserRoutes mounts under /api/u/:school_id.
func NotificationUserRoutes(user fiber.Router, repo *repository.NotificationRepository) {
	ctrl := controller.NewNotificationController(repo)

	notification := user.Group("/notifications")
	notification.Get("/", ctrl.ListForStudent)
	notification.Patch("/:id/read", ctrl.MarkAsRead)
}
