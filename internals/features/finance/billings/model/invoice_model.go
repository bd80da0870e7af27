package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ==============================
   ENUM: mode penerbitan
============================== */

type InvoiceMode string

const (
	// Semua santri aktif di unit saat penerbitan
	InvoiceModeBroadcast InvoiceMode = "broadcast"
	// Daftar santri eksplisit dari admin
	InvoiceModeSelective InvoiceMode = "selective"
)

// InvoiceModel = satu putaran tagihan (tabel invoices)
type InvoiceModel struct {
	InvoiceID       uuid.UUID `gorm:"column:invoice_id;type:uuid;primaryKey" json:"invoice_id"`
	InvoiceSchoolID uuid.UUID `gorm:"column:invoice_school_id;type:uuid;not null;index" json:"invoice_school_id"`
	InvoiceUnitCode string    `gorm:"column:invoice_unit_code;type:varchar(40);not null;index" json:"invoice_unit_code"`

	InvoiceTitle   string          `gorm:"column:invoice_title;type:text;not null" json:"invoice_title"`
	InvoiceNominal decimal.Decimal `gorm:"column:invoice_nominal;type:numeric(14,2);not null" json:"invoice_nominal"`
	InvoiceDueDate *time.Time      `gorm:"column:invoice_due_date" json:"invoice_due_date,omitempty"`
	InvoiceNote    *string         `gorm:"column:invoice_note;type:text" json:"invoice_note,omitempty"`

	InvoiceMode InvoiceMode `gorm:"column:invoice_mode;type:varchar(20);not null" json:"invoice_mode"`
	// Setelah terbit: selalu sama dengan himpunan payment_statuses milik invoice ini
	InvoiceSelectedStudentIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:invoice_selected_student_ids" json:"invoice_selected_student_ids"`

	// Counter denormalisasi
	InvoiceNumberOfStudentsInvoiced    int `gorm:"column:invoice_number_of_students_invoiced;not null;default:0" json:"invoice_number_of_students_invoiced"`
	InvoiceNumberOfWaitingVerification int `gorm:"column:invoice_number_of_waiting_verification;not null;default:0" json:"invoice_number_of_waiting_verification"`
	InvoiceNumberOfPaid                int `gorm:"column:invoice_number_of_paid;not null;default:0" json:"invoice_number_of_paid"`

	// NULL = penerbitan belum selesai (di-retry scheduler)
	InvoiceIssuedAt *time.Time `gorm:"column:invoice_issued_at;index" json:"invoice_issued_at,omitempty"`

	InvoiceCreatedByUserID *uuid.UUID `gorm:"column:invoice_created_by_user_id;type:uuid" json:"invoice_created_by_user_id,omitempty"`

	// kolom waktu eksplisit (bukan gorm.Model)
	InvoiceCreatedAt time.Time      `gorm:"column:invoice_created_at;not null;index" json:"invoice_created_at"`
	InvoiceUpdatedAt time.Time      `gorm:"column:invoice_updated_at;not null" json:"invoice_updated_at"`
	InvoiceDeletedAt gorm.DeletedAt `gorm:"column:invoice_deleted_at;index" json:"-"`
}

func (InvoiceModel) TableName() string { return "invoices" }

func (m *InvoiceModel) BeforeCreate(tx *gorm.DB) error {
	if m.InvoiceID == uuid.Nil {
		m.InvoiceID = uuid.New()
	}
	if m.InvoiceSchoolID == uuid.Nil {
		return fmt.Errorf("invoice_school_id is required")
	}
	if !m.InvoiceNominal.IsPositive() {
		return fmt.Errorf("invoice_nominal must be > 0")
	}
	if m.InvoiceMode == "" {
		m.InvoiceMode = ModeFor(m.InvoiceSelectedStudentIDs)
	}
	now := time.Now()
	if m.InvoiceCreatedAt.IsZero() {
		m.InvoiceCreatedAt = now
	}
	m.InvoiceUpdatedAt = now
	return nil
}

func (m *InvoiceModel) BeforeUpdate(tx *gorm.DB) error {
	m.InvoiceUpdatedAt = time.Now()
	return nil
}

// ModeFor: daftar kosong/absen ⇒ broadcast.
func ModeFor(selected []uuid.UUID) InvoiceMode {
	if len(selected) == 0 {
		return InvoiceModeBroadcast
	}
	return InvoiceModeSelective
}

// HasMember checks the membership list.
func (m *InvoiceModel) HasMember(studentID uuid.UUID) bool {
	for _, id := range m.InvoiceSelectedStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
