package route

import (
	"pesantrenku_backend/internals/features/finance/billings/controller"
	"pesantrenku_backend/internals/features/finance/billings/service"
	helperOSS "pesantrenku_backend/internals/helpers/oss"
	"pesantrenku_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
)

// BillingsUserRoutes mounts the guardian endpoints under /api/u/:school_id/finance.
func BillingsUserRoutes(user fiber.Router, svc *service.BillingService, proofs helperOSS.ProofStore) {
	ps := controller.NewPaymentStatusController(svc, proofs)

	statuses := user.Group("/payment-statuses")
	statuses.Post("/:id/submit", ps.Submit)
	statuses.Post("/:id/proof", middlewares.UploadRateLimiter(), ps.UploadProof)

	user.Get("/students/:student_id/payment-history", ps.PaymentHistory)
}
