package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =======================================
// ENUM
// =======================================

type SchoolStudentStatus string

const (
	SchoolStudentActive   SchoolStudentStatus = "active"
	SchoolStudentInactive SchoolStudentStatus = "inactive"
)

var validSchoolStudentStatus = map[SchoolStudentStatus]struct{}{
	SchoolStudentActive:   {},
	SchoolStudentInactive: {},
}

func (s SchoolStudentStatus) Valid() bool {
	_, ok := validSchoolStudentStatus[s]
	return ok
}

// PaymentLabel ringkasan status bayar santri di semua tagihan.
type PaymentLabel string

const (
	PaymentLabelPaid                 PaymentLabel = "paid"
	PaymentLabelUnpaid               PaymentLabel = "unpaid"
	PaymentLabelAwaitingVerification PaymentLabel = "awaiting_verification"
)

// =======================================
// Model: school_students
// =======================================

type SchoolStudentModel struct {
	// PK & Tenant
	SchoolStudentID       uuid.UUID `gorm:"column:school_student_id;type:uuid;primaryKey" json:"school_student_id"`
	SchoolStudentSchoolID uuid.UUID `gorm:"column:school_student_school_id;type:uuid;not null;index" json:"school_student_school_id"`

	// Unit = asrama/dormitory
	SchoolStudentUnitCode string `gorm:"column:school_student_unit_code;type:varchar(40);not null;index" json:"school_student_unit_code"`

	SchoolStudentName  string  `gorm:"column:school_student_name;type:varchar(120);not null" json:"school_student_name"`
	SchoolStudentRoom  *string `gorm:"column:school_student_room;type:varchar(60);index" json:"school_student_room,omitempty"`
	SchoolStudentLevel *string `gorm:"column:school_student_level;type:varchar(30);index" json:"school_student_level,omitempty"`

	SchoolStudentStatus SchoolStudentStatus `gorm:"column:school_student_status;type:varchar(20);not null;default:'active';index" json:"school_student_status"`

	// Wali santri (penerima notifikasi)
	SchoolStudentGuardianName  *string `gorm:"column:school_student_guardian_name;type:varchar(120)" json:"school_student_guardian_name,omitempty"`
	SchoolStudentGuardianPhone *string `gorm:"column:school_student_guardian_phone;type:varchar(30)" json:"school_student_guardian_phone,omitempty"`
	SchoolStudentGuardianEmail *string `gorm:"column:school_student_guardian_email;type:varchar(160)" json:"school_student_guardian_email,omitempty"`

	// Denormalisasi keuangan, hanya ditulis oleh workflow tagihan
	SchoolStudentOutstandingCount int          `gorm:"column:school_student_outstanding_count;not null;default:0;check:school_student_outstanding_count>=0" json:"school_student_outstanding_count"`
	SchoolStudentPaymentLabel     PaymentLabel `gorm:"column:school_student_payment_label;type:varchar(30);not null;default:'paid'" json:"school_student_payment_label"`

	// Audit & Soft delete
	SchoolStudentCreatedAt time.Time      `gorm:"column:school_student_created_at;not null" json:"school_student_created_at"`
	SchoolStudentUpdatedAt time.Time      `gorm:"column:school_student_updated_at;not null" json:"school_student_updated_at"`
	SchoolStudentDeletedAt gorm.DeletedAt `gorm:"column:school_student_deleted_at;index" json:"-"`
}

func (SchoolStudentModel) TableName() string { return "school_students" }

// IsActive reports whether the student counts toward the unit's active population.
func (m *SchoolStudentModel) IsActive() bool {
	return m != nil && m.SchoolStudentStatus == SchoolStudentActive
}

// =======================================
// Hooks
// =======================================

func (m *SchoolStudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolStudentID == uuid.Nil {
		m.SchoolStudentID = uuid.New()
	}
	if m.SchoolStudentStatus == "" {
		m.SchoolStudentStatus = SchoolStudentActive
	}
	if !m.SchoolStudentStatus.Valid() {
		return errors.New("invalid school_student_status")
	}
	if m.SchoolStudentPaymentLabel == "" {
		m.SchoolStudentPaymentLabel = PaymentLabelPaid
	}
	now := time.Now()
	if m.SchoolStudentCreatedAt.IsZero() {
		m.SchoolStudentCreatedAt = now
	}
	m.SchoolStudentUpdatedAt = now
	return nil
}

func (m *SchoolStudentModel) BeforeUpdate(tx *gorm.DB) error {
	if m.SchoolStudentStatus != "" && !m.SchoolStudentStatus.Valid() {
		return errors.New("invalid school_student_status")
	}
	m.SchoolStudentUpdatedAt = time.Now()
	return nil
}
