package route

import (
	"pesantrenku_backend/internals/features/school/students/controller"
	"pesantrenku_backend/internals/features/school/students/counters"
	"pesantrenku_backend/internals/features/school/students/service"

	"github.com/gofiber/fiber/v2"
)

// SchoolStudentAdminRoutes mounts under /api/a/:school_id.
func SchoolStudentAdminRoutes(admin fiber.Router, svc *service.StudentService, counterSvc *counters.Service) {
	ctl := controller.NewSchoolStudentController(svc, counterSvc)

	students := admin.Group("/students")
	students.Get("/counters", ctl.Counters) // sebelum /:id
	students.Post("/", ctl.Create)
	students.Get("/", ctl.List)
	students.Get("/:id", ctl.Get)
	students.Patch("/:id", ctl.Update)
	students.Delete("/:id", ctl.Delete)
}
