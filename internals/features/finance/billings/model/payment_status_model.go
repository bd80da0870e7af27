package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ==============================
   ENUM: status pembayaran per santri per tagihan
============================== */

type PaymentStatusState string

const (
	PaymentStatusUnpaid               PaymentStatusState = "unpaid"
	PaymentStatusAwaitingVerification PaymentStatusState = "awaiting_verification"
	PaymentStatusPaid                 PaymentStatusState = "paid"
)

func (s PaymentStatusState) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusAwaitingVerification, PaymentStatusPaid:
		return true
	}
	return false
}

/* ==============================================
   MODEL: payment_statuses
   PK deterministik {invoice_id}_{student_id}: maksimal satu baris per pasangan
============================================== */

type PaymentStatusModel struct {
	PaymentStatusID        string    `gorm:"column:payment_status_id;type:varchar(80);primaryKey" json:"payment_status_id"`
	PaymentStatusInvoiceID uuid.UUID `gorm:"column:payment_status_invoice_id;type:uuid;not null;index" json:"payment_status_invoice_id"`
	PaymentStatusStudentID uuid.UUID `gorm:"column:payment_status_student_id;type:uuid;not null;index" json:"payment_status_student_id"`
	PaymentStatusSchoolID  uuid.UUID `gorm:"column:payment_status_school_id;type:uuid;not null;index" json:"payment_status_school_id"`

	PaymentStatusStatus PaymentStatusState `gorm:"column:payment_status_status;type:varchar(30);not null;default:'unpaid';index" json:"payment_status_status"`
	// Akumulasi nominal terverifikasi; 0 <= paid <= total
	PaymentStatusPaid  decimal.Decimal `gorm:"column:payment_status_paid;type:numeric(14,2);not null" json:"payment_status_paid"`
	PaymentStatusTotal decimal.Decimal `gorm:"column:payment_status_total;type:numeric(14,2);not null" json:"payment_status_total"`

	// Snapshot santri & invoice saat diterbitkan (dipakai filter list)
	PaymentStatusStudentNameSnapshot  string  `gorm:"column:payment_status_student_name_snapshot;type:varchar(120)" json:"payment_status_student_name_snapshot"`
	PaymentStatusRoomSnapshot         *string `gorm:"column:payment_status_room_snapshot;type:varchar(60);index" json:"payment_status_room_snapshot,omitempty"`
	PaymentStatusLevelSnapshot        *string `gorm:"column:payment_status_level_snapshot;type:varchar(30);index" json:"payment_status_level_snapshot,omitempty"`
	PaymentStatusUnitCodeSnapshot     string  `gorm:"column:payment_status_unit_code_snapshot;type:varchar(40)" json:"payment_status_unit_code_snapshot"`
	PaymentStatusInvoiceTitleSnapshot string  `gorm:"column:payment_status_invoice_title_snapshot;type:text" json:"payment_status_invoice_title_snapshot"`

	PaymentStatusCreatedAt time.Time `gorm:"column:payment_status_created_at;not null" json:"payment_status_created_at"`
	PaymentStatusUpdatedAt time.Time `gorm:"column:payment_status_updated_at;not null" json:"payment_status_updated_at"`

	// Log append-only, urut ULID
	History []PaymentStatusEventModel `gorm:"foreignKey:PaymentStatusEventPaymentStatusID;references:PaymentStatusID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

func (PaymentStatusModel) TableName() string { return "payment_statuses" }

// PaymentStatusKey builds the deterministic id for (invoice, student).
func PaymentStatusKey(invoiceID, studentID uuid.UUID) string {
	return invoiceID.String() + "_" + studentID.String()
}

// ParsePaymentStatusKey is the inverse of PaymentStatusKey.
func ParsePaymentStatusKey(id string) (invoiceID, studentID uuid.UUID, ok bool) {
	a, b, found := strings.Cut(id, "_")
	if !found {
		return uuid.Nil, uuid.Nil, false
	}
	inv, err1 := uuid.Parse(a)
	stu, err2 := uuid.Parse(b)
	if err1 != nil || err2 != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return inv, stu, true
}

// Remaining = total - paid, never negative.
func (m *PaymentStatusModel) Remaining() decimal.Decimal {
	r := m.PaymentStatusTotal.Sub(m.PaymentStatusPaid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (m *PaymentStatusModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentStatusID == "" {
		m.PaymentStatusID = PaymentStatusKey(m.PaymentStatusInvoiceID, m.PaymentStatusStudentID)
	}
	if m.PaymentStatusStatus == "" {
		m.PaymentStatusStatus = PaymentStatusUnpaid
	}
	now := time.Now()
	if m.PaymentStatusCreatedAt.IsZero() {
		m.PaymentStatusCreatedAt = now
	}
	m.PaymentStatusUpdatedAt = now
	return nil
}

func (m *PaymentStatusModel) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentStatusUpdatedAt = time.Now()
	return nil
}
