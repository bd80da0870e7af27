package controller

import (
	"strings"

	"pesantrenku_backend/internals/features/school/students/counters"
	"pesantrenku_backend/internals/features/school/students/dto"
	"pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/features/school/students/service"
	helper "pesantrenku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

type SchoolStudentController struct {
	svc      *service.StudentService
	counters *counters.Service
}

func NewSchoolStudentController(svc *service.StudentService, counterSvc *counters.Service) *SchoolStudentController {
	return &SchoolStudentController{svc: svc, counters: counterSvc}
}

// 🟢 POST /api/a/:school_id/students
func (ctl *SchoolStudentController) Create(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.CreateSchoolStudentRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}
	m, err := ctl.svc.Create(c.UserContext(), schoolID, &req)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonCreated(c, "Santri berhasil ditambahkan", m)
}

// 🟢 GET /api/a/:school_id/students?unit_code=&status=&q=
func (ctl *SchoolStudentController) List(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	p := helper.ResolvePaging(c, 20, 200)
	f := repository.StudentListFilter{
		UnitCode: helper.QueryPtr(c, "unit_code"),
		Q:        helper.QueryPtr(c, "q"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if s := helper.QueryPtr(c, "status"); s != nil {
		st := model.SchoolStudentStatus(strings.ToLower(*s))
		if !st.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "status harus active/inactive")
		}
		f.Status = &st
	}
	rows, total, err := ctl.svc.List(c.UserContext(), schoolID, f)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonList(c, "Daftar santri", rows, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// 🟢 GET /api/a/:school_id/students/:id
func (ctl *SchoolStudentController) Get(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	m, err := ctl.svc.Get(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Detail santri", m)
}

// 🟡 PATCH /api/a/:school_id/students/:id
func (ctl *SchoolStudentController) Update(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.UpdateSchoolStudentRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}
	m, err := ctl.svc.Update(c.UserContext(), schoolID, id, &req)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonUpdated(c, "Santri diperbarui", m)
}

// 🔴 DELETE /api/a/:school_id/students/:id
func (ctl *SchoolStudentController) Delete(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	if err := ctl.svc.Delete(c.UserContext(), schoolID, id); err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonDeleted(c, "Santri dihapus", fiber.Map{"school_student_id": id})
}

// 🟢 GET /api/a/:school_id/students/counters
func (ctl *SchoolStudentController) Counters(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	rows, err := ctl.counters.List(c.UserContext(), schoolID)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Jumlah santri aktif per unit", rows)
}
