package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentEventType string

const (
	PaymentEventFullPayment    PaymentEventType = "full_payment"
	PaymentEventPartialPayment PaymentEventType = "partial_payment"
	PaymentEventVerification   PaymentEventType = "verification"
	PaymentEventRejection      PaymentEventType = "rejection"
	PaymentEventRevocation     PaymentEventType = "revocation"
)

// IsSubmission: entri bertipe pembayaran (full/partial).
func (t PaymentEventType) IsSubmission() bool {
	return t == PaymentEventFullPayment || t == PaymentEventPartialPayment
}

type PaymentMethod string

const (
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodQRIS         PaymentMethod = "qris"
	PaymentMethodOther        PaymentMethod = "other"
)

type ActorRole string

const (
	ActorGuardian ActorRole = "guardian"
	ActorStaff    ActorRole = "staff"
	ActorSystem   ActorRole = "system"
)

// PaymentStatusEventModel = satu entri history (append-only).
// ID = ULID, jadi urutan leksikografis = urutan waktu.
type PaymentStatusEventModel struct {
	PaymentStatusEventID              string           `gorm:"column:payment_status_event_id;type:char(26);primaryKey" json:"payment_status_event_id"`
	PaymentStatusEventPaymentStatusID string           `gorm:"column:payment_status_event_payment_status_id;type:varchar(80);not null;index" json:"payment_status_event_payment_status_id"`
	PaymentStatusEventType            PaymentEventType `gorm:"column:payment_status_event_type;type:varchar(30);not null" json:"payment_status_event_type"`
	PaymentStatusEventAmount          decimal.Decimal  `gorm:"column:payment_status_event_amount;type:numeric(14,2);not null" json:"payment_status_event_amount"`

	PaymentStatusEventActorID   *uuid.UUID `gorm:"column:payment_status_event_actor_id;type:uuid" json:"payment_status_event_actor_id,omitempty"`
	PaymentStatusEventActorRole ActorRole  `gorm:"column:payment_status_event_actor_role;type:varchar(20);not null" json:"payment_status_event_actor_role"`

	// Khusus submission
	PaymentStatusEventMethod   *PaymentMethod `gorm:"column:payment_status_event_method;type:varchar(30)" json:"payment_status_event_method,omitempty"`
	PaymentStatusEventProofRef *string        `gorm:"column:payment_status_event_proof_ref;type:text" json:"payment_status_event_proof_ref,omitempty"`

	// Khusus rejection/revocation
	PaymentStatusEventReasonCode *string `gorm:"column:payment_status_event_reason_code;type:varchar(60)" json:"payment_status_event_reason_code,omitempty"`
	PaymentStatusEventReasonNote *string `gorm:"column:payment_status_event_reason_note;type:text" json:"payment_status_event_reason_note,omitempty"`

	PaymentStatusEventMeta datatypes.JSON `gorm:"column:payment_status_event_meta" json:"payment_status_event_meta,omitempty"`

	PaymentStatusEventCreatedAt time.Time `gorm:"column:payment_status_event_created_at;not null" json:"payment_status_event_created_at"`
}

func (PaymentStatusEventModel) TableName() string { return "payment_status_events" }

func (m *PaymentStatusEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentStatusEventID == "" {
		m.PaymentStatusEventID = ulid.Make().String()
	}
	if m.PaymentStatusEventCreatedAt.IsZero() {
		m.PaymentStatusEventCreatedAt = time.Now()
	}
	return nil
}
