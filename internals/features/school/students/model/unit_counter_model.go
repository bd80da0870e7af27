package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitCounterModel = jumlah santri aktif per unit (asrama), per sekolah.
// Hanya untuk estimasi; penerbitan tagihan selalu menghitung ulang dari query langsung.
type UnitCounterModel struct {
	UnitCounterSchoolID       uuid.UUID `gorm:"column:unit_counter_school_id;type:uuid;primaryKey" json:"unit_counter_school_id"`
	UnitCounterUnitCode       string    `gorm:"column:unit_counter_unit_code;type:varchar(40);primaryKey" json:"unit_counter_unit_code"`
	UnitCounterActiveStudents int       `gorm:"column:unit_counter_active_students;not null;default:0;check:unit_counter_active_students>=0" json:"unit_counter_active_students"`
	UnitCounterUpdatedAt      time.Time `gorm:"column:unit_counter_updated_at;not null" json:"unit_counter_updated_at"`
}

func (UnitCounterModel) TableName() string { return "unit_counters" }

func (m *UnitCounterModel) BeforeSave(tx *gorm.DB) error {
	m.UnitCounterUpdatedAt = time.Now()
	return nil
}
