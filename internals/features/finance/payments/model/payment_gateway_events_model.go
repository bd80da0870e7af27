package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  payment_gateway_events = LOG WEBHOOK / CALLBACK PAYMENT GATEWAY
  - Banyak row per 1 order (tiap notifikasi)
  - Nyimpen raw payload, signature, status processing.
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventSchoolID        *uuid.UUID `gorm:"column:gateway_event_school_id;type:uuid" json:"gateway_event_school_id,omitempty"`
	GatewayEventPaymentStatusID *string    `gorm:"column:gateway_event_payment_status_id;type:varchar(80)" json:"gateway_event_payment_status_id,omitempty"`

	// Provider & identitas event
	GatewayEventProvider    PaymentGatewayProvider `gorm:"column:gateway_event_provider;type:varchar(20);not null" json:"gateway_event_provider"`
	GatewayEventType        *string                `gorm:"column:gateway_event_type;type:varchar(40)" json:"gateway_event_type,omitempty"`
	GatewayEventExternalID  *string                `gorm:"column:gateway_event_external_id;type:varchar(64);index" json:"gateway_event_external_id,omitempty"`
	GatewayEventExternalRef *string                `gorm:"column:gateway_event_external_ref;type:varchar(80)" json:"gateway_event_external_ref,omitempty"`

	// Raw data (buat debug / replay)
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature;type:text" json:"-"`

	// Status processing internal
	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (m *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventStatus == "" {
		m.GatewayEventStatus = GatewayEventStatusReceived
	}
	if m.GatewayEventReceivedAt.IsZero() {
		m.GatewayEventReceivedAt = time.Now()
	}
	return nil
}
