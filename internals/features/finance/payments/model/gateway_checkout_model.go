package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  gateway_checkouts = satu transaksi Snap untuk satu payment status
  - order_id dikirim ke Midtrans dan kembali di notifikasi
  - nominal = sisa tagihan saat checkout dibuat
*/

type GatewayCheckoutModel struct {
	GatewayCheckoutOrderID         string    `gorm:"column:gateway_checkout_order_id;type:varchar(64);primaryKey" json:"gateway_checkout_order_id"`
	GatewayCheckoutPaymentStatusID string    `gorm:"column:gateway_checkout_payment_status_id;type:varchar(80);not null;index" json:"gateway_checkout_payment_status_id"`
	GatewayCheckoutSchoolID        uuid.UUID `gorm:"column:gateway_checkout_school_id;type:uuid;not null;index" json:"gateway_checkout_school_id"`
	GatewayCheckoutStudentID       uuid.UUID `gorm:"column:gateway_checkout_student_id;type:uuid;not null" json:"gateway_checkout_student_id"`

	GatewayCheckoutProvider PaymentGatewayProvider `gorm:"column:gateway_checkout_provider;type:varchar(20);not null" json:"gateway_checkout_provider"`
	GatewayCheckoutAmount   decimal.Decimal        `gorm:"column:gateway_checkout_amount;type:numeric(14,2);not null" json:"gateway_checkout_amount"`
	GatewayCheckoutStatus   CheckoutStatus         `gorm:"column:gateway_checkout_status;type:varchar(20);not null" json:"gateway_checkout_status"`

	GatewayCheckoutSnapToken     string  `gorm:"column:gateway_checkout_snap_token;type:varchar(120)" json:"gateway_checkout_snap_token"`
	GatewayCheckoutRedirectURL   string  `gorm:"column:gateway_checkout_redirect_url;type:text" json:"gateway_checkout_redirect_url"`
	GatewayCheckoutTransactionID *string `gorm:"column:gateway_checkout_transaction_id;type:varchar(80)" json:"gateway_checkout_transaction_id,omitempty"`
	GatewayCheckoutPaymentType   *string `gorm:"column:gateway_checkout_payment_type;type:varchar(40)" json:"gateway_checkout_payment_type,omitempty"`

	// notifikasi terakhir (raw)
	GatewayCheckoutLastPayload datatypes.JSON `gorm:"column:gateway_checkout_last_payload" json:"-"`

	GatewayCheckoutPaidAt    *time.Time `gorm:"column:gateway_checkout_paid_at" json:"gateway_checkout_paid_at,omitempty"`
	GatewayCheckoutCreatedAt time.Time  `gorm:"column:gateway_checkout_created_at;not null" json:"gateway_checkout_created_at"`
	GatewayCheckoutUpdatedAt time.Time  `gorm:"column:gateway_checkout_updated_at;not null" json:"gateway_checkout_updated_at"`
}

func (GatewayCheckoutModel) TableName() string { return "gateway_checkouts" }

func (m *GatewayCheckoutModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayCheckoutStatus == "" {
		m.GatewayCheckoutStatus = CheckoutStatusPending
	}
	if m.GatewayCheckoutProvider == "" {
		m.GatewayCheckoutProvider = GatewayProviderMidtrans
	}
	now := time.Now()
	m.GatewayCheckoutCreatedAt = now
	m.GatewayCheckoutUpdatedAt = now
	return nil
}
