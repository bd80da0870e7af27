package details

import (
	BillingRoute "pesantrenku_backend/internals/features/finance/billings/route"
	billingService "pesantrenku_backend/internals/features/finance/billings/service"
	PaymentRoute "pesantrenku_backend/internals/features/finance/payments/route"
	paymentService "pesantrenku_backend/internals/features/finance/payments/service"
	helperOSS "pesantrenku_backend/internals/helpers/oss"
	"pesantrenku_backend/internals/logger"

	"github.com/gofiber/fiber/v2"
)

type FinanceDeps struct {
	Billing  *billingService.BillingService
	Checkout *paymentService.CheckoutService
	Proofs   helperOSS.ProofStore
	Log      *logger.Logger
}

// /api/public/finance
func FinancePublicRoutes(r fiber.Router, d FinanceDeps) {
	PaymentRoute.PaymentPublicRoutes(r.Group("/finance"), d.Checkout)
}

// /api/u/:school_id/finance
func FinanceUserRoutes(r fiber.Router, d FinanceDeps) {
	g := r.Group("/finance")
	BillingRoute.BillingsUserRoutes(g, d.Billing, d.Proofs)
	PaymentRoute.PaymentUserRoutes(g, d.Checkout)
}

// /api/a/:school_id/finance
func FinanceAdminRoutes(r fiber.Router, d FinanceDeps) {
	BillingRoute.BillingsAdminRoutes(r.Group("/finance"), d.Billing, d.Proofs, d.Log)
}
