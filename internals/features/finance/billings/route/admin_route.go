package route

import (
	"pesantrenku_backend/internals/features/finance/billings/controller"
	"pesantrenku_backend/internals/features/finance/billings/service"
	helperOSS "pesantrenku_backend/internals/helpers/oss"
	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
)

/*
Admin routes, mounted under /api/a/:school_id/finance.
Diproteksi middleware auth (role admin/staff).
*/
func BillingsAdminRoutes(admin fiber.Router, svc *service.BillingService, proofs helperOSS.ProofStore, log *logger.Logger) {
	inv := controller.NewInvoiceController(svc, log)
	ps := controller.NewPaymentStatusController(svc, proofs)

	// =========================
	// Invoices
	// =========================
	invoices := admin.Group("/invoices")
	invoices.Post("/", inv.Create)
	invoices.Get("/", inv.List)
	invoices.Get("/:id", inv.Get)
	invoices.Delete("/:id", inv.Delete)
	invoices.Post("/:id/issue", inv.Issue)

	// ---- membership
	invoices.Post("/:id/students/add", inv.AddStudents)
	invoices.Post("/:id/students/remove", inv.RemoveStudents)
	invoices.Get("/:id/payment-statuses", inv.ListPaymentStatuses)

	// =========================
	// Payment statuses (verifikasi)
	// =========================
	statuses := admin.Group("/payment-statuses")
	statuses.Get("/:id", ps.Get)
	statuses.Post("/:id/verify", ps.Verify)
	statuses.Post("/:id/revoke", ps.Revoke)

	admin.Get("/students/:student_id/payment-history", ps.PaymentHistory)
}
