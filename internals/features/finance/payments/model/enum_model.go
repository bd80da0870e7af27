package model

type CheckoutStatus string
type PaymentGatewayProvider string
type GatewayEventStatus string

const (
	CheckoutStatusPending  CheckoutStatus = "pending"
	CheckoutStatusPaid     CheckoutStatus = "paid"
	CheckoutStatusFailed   CheckoutStatus = "failed"
	CheckoutStatusCanceled CheckoutStatus = "canceled"
	CheckoutStatusExpired  CheckoutStatus = "expired"
	CheckoutStatusRefunded CheckoutStatus = "refunded"
	// dibayar lewat gateway padahal status sudah lunas manual
	CheckoutStatusRefundRequired CheckoutStatus = "refund_required"
)

// Final: notifikasi berikutnya untuk order ini diabaikan.
func (s CheckoutStatus) Final() bool {
	switch s {
	case CheckoutStatusPaid, CheckoutStatusRefunded, CheckoutStatusRefundRequired:
		return true
	}
	return false
}

const (
	GatewayProviderMidtrans PaymentGatewayProvider = "midtrans"
)

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusIgnored   GatewayEventStatus = "ignored"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"

	GatewayEventStatusRefundRequired GatewayEventStatus = "refund_required"
)
