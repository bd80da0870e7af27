package details

import (
	"pesantrenku_backend/internals/features/school/students/counters"
	StudentRoute "pesantrenku_backend/internals/features/school/students/route"
	studentService "pesantrenku_backend/internals/features/school/students/service"

	"github.com/gofiber/fiber/v2"
)

type SchoolDeps struct {
	Students *studentService.StudentService
	Counters *counters.Service
}

// /api/a/:school_id
func SchoolAdminRoutes(r fiber.Router, d SchoolDeps) {
	StudentRoute.SchoolStudentAdminRoutes(r, d.Students, d.Counters)
}
