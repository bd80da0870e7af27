package controller

import (
	"strings"

	"pesantrenku_backend/internals/features/finance/payments/service"
	helper "pesantrenku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	svc *service.CheckoutService
}

func NewPaymentController(svc *service.CheckoutService) *PaymentController {
	return &PaymentController{svc: svc}
}

// 🟢 POST /api/u/:school_id/finance/payment-statuses/:id/checkout
func (h *PaymentController) CreateCheckout(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonErr(c, err)
	}
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "id wajib diisi")
	}

	co, err := h.svc.CreateCheckout(c.UserContext(), schoolID, id)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonCreated(c, "Transaksi pembayaran dibuat", fiber.Map{
		"order_id":     co.GatewayCheckoutOrderID,
		"snap_token":   co.GatewayCheckoutSnapToken,
		"redirect_url": co.GatewayCheckoutRedirectURL,
		"amount":       co.GatewayCheckoutAmount,
	})
}

/*
=========================================================

	MIDTRANS WEBHOOK
	POST /api/public/finance/midtrans/notification
	- verifikasi signature
	- log raw payload (payment_gateway_events)
	- order tidak dikenal → 200 "ignored" agar Midtrans berhenti retry

=========================================================
*/
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	if len(body) == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload kosong")
	}

	status, err := h.svc.HandleNotification(c.UserContext(), body)
	if err != nil {
		return helper.JsonErr(c, err)
	}
	return helper.JsonOK(c, "OK", fiber.Map{"status": status})
}
