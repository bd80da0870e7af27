package controller

import (
	"strconv"

	"pesantrenku_backend/internals/features/finance/billings/dto"
	"pesantrenku_backend/internals/features/finance/billings/repository"
	"pesantrenku_backend/internals/features/finance/billings/service"
	helper "pesantrenku_backend/internals/helpers"
	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
)

type InvoiceController struct {
	svc *service.BillingService
	log *logger.Logger
}

func NewInvoiceController(svc *service.BillingService, log *logger.Logger) *InvoiceController {
	return &InvoiceController{svc: svc, log: log}
}

/* =========================================================
   CREATE + ISSUE
========================================================= */

// 🟢 POST /api/a/:school_id/finance/invoices
func (ctl *InvoiceController) Create(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}

	var req dto.CreateInvoiceRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	inv, res, err := ctl.svc.CreateInvoice(c.UserContext(), req.ToInput(schoolID, helper.ActorID(c)))
	if err != nil {
		if inv == nil {
			return helper.JsonErr(c, err)
		}
		// invoice tersimpan, penerbitan dilanjutkan scheduler
		ctl.log.Warnw("invoice created, issuance incomplete", "invoice_id", inv.InvoiceID, "error", err)
		return helper.JsonAccepted(c, "Tagihan dibuat, penerbitan sedang diproses", fiber.Map{
			"invoice":  dto.FromInvoiceModel(inv),
			"issuance": res,
		})
	}
	return helper.JsonCreated(c, "Tagihan berhasil diterbitkan", fiber.Map{
		"invoice":  dto.FromInvoiceModel(inv),
		"issuance": res,
	})
}

// 🟢 POST /api/a/:school_id/finance/invoices/:id/issue
// Re-run penerbitan (idempotent).
func (ctl *InvoiceController) Issue(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	res, err := ctl.svc.IssueInvoiceFor(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Penerbitan tagihan selesai", res)
}

/* =========================================================
   READ
========================================================= */

// 🟢 GET /api/a/:school_id/finance/invoices?unit_code=&issued=&page=&per_page=
func (ctl *InvoiceController) List(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}

	p := helper.ResolvePaging(c, 20, 100)
	f := repository.InvoiceListFilter{
		UnitCode: helper.QueryPtr(c, "unit_code"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if raw := helper.QueryPtr(c, "issued"); raw != nil {
		b, perr := strconv.ParseBool(*raw)
		if perr != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "issued harus true/false")
		}
		f.Issued = &b
	}

	rows, total, err := ctl.svc.ListInvoices(c.UserContext(), schoolID, f)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonList(c, "Daftar tagihan", dto.FromInvoiceModels(rows), helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// 🟢 GET /api/a/:school_id/finance/invoices/:id
func (ctl *InvoiceController) Get(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	inv, err := ctl.svc.GetInvoice(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Detail tagihan", dto.FromInvoiceModel(inv))
}

// 🟢 GET /api/a/:school_id/finance/invoices/:id/payment-statuses?status=&room=&level=
func (ctl *InvoiceController) ListPaymentStatuses(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}

	var q dto.PaymentStatusListQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := helper.Validator().Struct(&q); err != nil {
		return helper.JsonValidationError(c, helper.FieldErrors(err))
	}

	p := helper.ResolvePaging(c, 50, 500)
	f := q.ToFilter()
	f.Limit, f.Offset = p.Limit, p.Offset

	rows, total, err := ctl.svc.GetInvoicePaymentStatuses(c.UserContext(), schoolID, id, f)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonList(c, "Daftar status pembayaran", rows, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

/* =========================================================
   MEMBERSHIP
========================================================= */

// 🟢 POST /api/a/:school_id/finance/invoices/:id/students/add
func (ctl *InvoiceController) AddStudents(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.StudentIDsRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	res, err := ctl.svc.AddStudentsToInvoice(c.UserContext(), schoolID, id, req.StudentIDs)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Santri ditambahkan ke tagihan", res)
}

// 🟢 POST /api/a/:school_id/finance/invoices/:id/students/remove
func (ctl *InvoiceController) RemoveStudents(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.StudentIDsRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	res, err := ctl.svc.RemoveStudentsFromInvoice(c.UserContext(), schoolID, id, req.StudentIDs)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Santri dikeluarkan dari tagihan", res)
}

/* =========================================================
   DELETE
========================================================= */

// 🔴 DELETE /api/a/:school_id/finance/invoices/:id
func (ctl *InvoiceController) Delete(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	if err := ctl.svc.DeleteInvoice(c.UserContext(), schoolID, id); err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonDeleted(c, "Tagihan dihapus", fiber.Map{"invoice_id": id})
}
