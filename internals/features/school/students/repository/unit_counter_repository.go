package repository

import (
	"context"
	"errors"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnitCounterRepository struct {
	db database.IClient
}

func NewUnitCounterRepository(db database.IClient) *UnitCounterRepository {
	return &UnitCounterRepository{db: db}
}

// Adjust applies delta to the (school, unit) counter, creating it on first use
// and never letting it drop below zero. Must run inside a transaction.
func (r *UnitCounterRepository) Adjust(ctx context.Context, schoolID uuid.UUID, unitCode string, delta int) error {
	if delta == 0 || unitCode == "" {
		return nil
	}
	db := r.db.DB(ctx)

	seed := model.UnitCounterModel{UnitCounterSchoolID: schoolID, UnitCounterUnitCode: unitCode}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menyiapkan counter unit").Mark(ierr.ErrDatabase)
	}

	var cur model.UnitCounterModel
	if err := database.ForUpdate(db).
		Where("unit_counter_school_id = ? AND unit_counter_unit_code = ?", schoolID, unitCode).
		First(&cur).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal membaca counter unit").Mark(ierr.ErrDatabase)
	}

	next := cur.UnitCounterActiveStudents + delta
	if next < 0 {
		next = 0
	}
	cur.UnitCounterActiveStudents = next
	err := db.Model(&cur).
		Where("unit_counter_school_id = ? AND unit_counter_unit_code = ?", schoolID, unitCode).
		Updates(map[string]any{
			"unit_counter_active_students": next,
			"unit_counter_updated_at":      time.Now(),
		}).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui counter unit").Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get returns 0 for a unit that has never been counted.
func (r *UnitCounterRepository) Get(ctx context.Context, schoolID uuid.UUID, unitCode string) (int, error) {
	var m model.UnitCounterModel
	err := r.db.DB(ctx).
		Where("unit_counter_school_id = ? AND unit_counter_unit_code = ?", schoolID, unitCode).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, ierr.WithError(err).WithHint("Gagal membaca counter unit").Mark(ierr.ErrDatabase)
	}
	return m.UnitCounterActiveStudents, nil
}

func (r *UnitCounterRepository) List(ctx context.Context, schoolID uuid.UUID) ([]model.UnitCounterModel, error) {
	var rows []model.UnitCounterModel
	err := r.db.DB(ctx).
		Where("unit_counter_school_id = ?", schoolID).
		Order("unit_counter_unit_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil counter unit").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

func (r *UnitCounterRepository) ListAll(ctx context.Context) ([]model.UnitCounterModel, error) {
	var rows []model.UnitCounterModel
	if err := r.db.DB(ctx).Find(&rows).Error; err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil counter unit").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

// Set overwrites a counter with an absolute value (reconciliation).
func (r *UnitCounterRepository) Set(ctx context.Context, schoolID uuid.UUID, unitCode string, value int) error {
	if value < 0 {
		value = 0
	}
	row := model.UnitCounterModel{
		UnitCounterSchoolID:       schoolID,
		UnitCounterUnitCode:       unitCode,
		UnitCounterActiveStudents: value,
	}
	err := r.db.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_counter_school_id"}, {Name: "unit_counter_unit_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"unit_counter_active_students", "unit_counter_updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal menyimpan counter unit").Mark(ierr.ErrDatabase)
	}
	return nil
}
