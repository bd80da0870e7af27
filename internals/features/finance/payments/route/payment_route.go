package route

import (
	"pesantrenku_backend/internals/features/finance/payments/controller"
	"pesantrenku_backend/internals/features/finance/payments/service"

	"github.com/gofiber/fiber/v2"
)

// PaymentUserRoutes mounts under /api/u/:school_id/finance.
func PaymentUserRoutes(user fiber.Router, svc *service.CheckoutService) {
	h := controller.NewPaymentController(svc)
	user.Post("/payment-statuses/:id/checkout", h.CreateCheckout)
}

// PaymentPublicRoutes mounts under /api/public/finance; the webhook authenticates by signature.
func PaymentPublicRoutes(public fiber.Router, svc *service.CheckoutService) {
	h := controller.NewPaymentController(svc)
	public.Post("/midtrans/notification", h.MidtransWebhook)
}
