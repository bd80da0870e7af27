package controller

import (
	"time"

	"pesantrenku_backend/internals/features/home/notifications/repository"
	helper "pesantrenku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotificationController struct {
	repo *repository.NotificationRepository
}

func NewNotificationController(repo *repository.NotificationRepository) *NotificationController {
	return &NotificationController{repo: repo}
}

// 🟢 GET /api/u/:school_id/notifications?student_id=...&page=&per_page=
func (ctrl *NotificationController) ListForStudent(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	studentID, err := uuid.Parse(c.Query("student_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid")
	}

	p := helper.ResolvePaging(c, 10, 100)
	rows, total, err := ctrl.repo.ListByStudent(c.UserContext(), schoolID, studentID, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonList(c, "Daftar notifikasi", rows, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// 🟢 PATCH /api/u/:school_id/notifications/:id/read
func (ctrl *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	if err := ctrl.repo.MarkRead(c.UserContext(), schoolID, id, time.Now()); err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonUpdated(c, "Notifikasi ditandai sebagai dibaca", fiber.Map{"notification_id": id})
}
