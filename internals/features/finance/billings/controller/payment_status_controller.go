package controller

import (
	"strconv"
	"strings"

	"pesantrenku_backend/internals/features/finance/billings/dto"
	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/service"
	helper "pesantrenku_backend/internals/helpers"
	helperOSS "pesantrenku_backend/internals/helpers/oss"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentStatusController struct {
	svc    *service.BillingService
	proofs helperOSS.ProofStore // nil = upload bukti tidak tersedia
}

func NewPaymentStatusController(svc *service.BillingService, proofs helperOSS.ProofStore) *PaymentStatusController {
	return &PaymentStatusController{svc: svc, proofs: proofs}
}

func statusIDParam(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if _, _, ok := model.ParsePaymentStatusKey(id); !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "id status pembayaran tidak valid")
	}
	return id, nil
}

/* =========================================================
   ADMIN
========================================================= */

// 🟢 GET /api/a/:school_id/finance/payment-statuses/:id
func (ctl *PaymentStatusController) Get(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := statusIDParam(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	ps, err := ctl.svc.GetPaymentStatus(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Detail status pembayaran", ps)
}

// 🟢 POST /api/a/:school_id/finance/payment-statuses/:id/verify
func (ctl *PaymentStatusController) Verify(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := statusIDParam(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.VerifyPaymentRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	ps, err := ctl.svc.VerifyPayment(c.UserContext(), schoolID, id, service.VerifyInput{
		Approve:    *req.Approve,
		ReasonCode: req.ReasonCode,
		ReasonNote: req.ReasonNote,
		ActorID:    helper.ActorID(c),
	})
	if err != nil {
		return helper.JsonErr(c, err)
	}
	msg := "Pembayaran ditolak"
	if *req.Approve {
		msg = "Pembayaran diverifikasi"
	}
	return helper.JsonUpdated(c, msg, ps)
}

// 🟢 POST /api/a/:school_id/finance/payment-statuses/:id/revoke
func (ctl *PaymentStatusController) Revoke(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := statusIDParam(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.RevokePaymentRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	ps, err := ctl.svc.RevokePaidStatus(c.UserContext(), schoolID, id, service.RevokeInput{
		ReasonCode: req.ReasonCode,
		ReasonNote: req.ReasonNote,
		ActorID:    helper.ActorID(c),
	})
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonUpdated(c, "Status lunas dibatalkan", ps)
}

// 🟢 GET .../finance/students/:student_id/payment-history (admin & wali)
func (ctl *PaymentStatusController) PaymentHistory(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "student_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	rows, err := ctl.svc.GetPaymentHistory(c.UserContext(), schoolID, studentID)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "Riwayat pembayaran", rows)
}

/* =========================================================
   WALI SANTRI
========================================================= */

// 🟢 POST /api/u/:school_id/finance/payment-statuses/:id/submit
func (ctl *PaymentStatusController) Submit(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := statusIDParam(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	var req dto.SubmitPaymentRequest
	if ok, resp := helper.BindAndValidate(c, &req); !ok {
		return resp
	}

	ps, err := ctl.svc.SubmitPayment(c.UserContext(), schoolID, id, service.SubmitInput{
		Partial:  req.Partial,
		Amount:   req.Amount,
		ProofRef: req.ProofRef,
		Method:   model.PaymentMethod(req.Method),
		ActorID:  helper.ActorID(c),
	})
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonAccepted(c, "Bukti pembayaran terkirim, menunggu verifikasi", ps)
}

// 🟢 POST /api/u/:school_id/finance/payment-statuses/:id/proof (multipart)
// Field: proof (gambar), partial, amount, method. Upload ke OSS lalu submit.
func (ctl *PaymentStatusController) UploadProof(c *fiber.Ctx) error {
	if ctl.proofs == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Upload bukti belum tersedia")
	}
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id, err := statusIDParam(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}

	fh, err := helperOSS.GetImageFile(c)
	if err != nil {
		return helper.JsonErr(c, err)
	}

	in := service.SubmitInput{
		Method:  model.PaymentMethod(strings.ToLower(strings.TrimSpace(c.FormValue("method", string(model.PaymentMethodBankTransfer))))),
		ActorID: helper.ActorID(c),
	}
	if v := strings.TrimSpace(c.FormValue("partial")); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "partial harus true/false")
		}
		in.Partial = b
	}
	if v := strings.TrimSpace(c.FormValue("amount")); v != "" {
		amt, perr := decimal.NewFromString(v)
		if perr != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "amount tidak valid")
		}
		in.Amount = &amt
	}

	// scope tenant dulu sebelum menyentuh storage
	ps, err := ctl.svc.GetPaymentStatus(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}

	url, err := ctl.proofs.UploadProof(c.UserContext(), schoolID, id, ps.PaymentStatusStudentNameSnapshot, fh)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	in.ProofRef = url

	ps, err = ctl.svc.SubmitPayment(c.UserContext(), schoolID, id, in)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonAccepted(c, "Bukti pembayaran terkirim, menunggu verifikasi", fiber.Map{
		"proof_ref":      url,
		"payment_status": ps,
	})
}
