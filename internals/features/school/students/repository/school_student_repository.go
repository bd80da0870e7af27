package repository

import (
	"context"
	"errors"
	"strings"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentRepository struct {
	db database.IClient
}

func NewStudentRepository(db database.IClient) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, m *model.SchoolStudentModel) error {
	if err := r.db.DB(ctx).Create(m).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menyimpan santri").Mark(ierr.ErrDatabase)
	}
	return nil
}

func notFound(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ierr.WithError(err).
			WithHint("Santri tidak ditemukan").
			WithReportableDetails(map[string]any{"student_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).WithHint("Gagal mengambil data santri").Mark(ierr.ErrDatabase)
}

// Get loads a student scoped to its school. A student from another school is NotFound.
func (r *StudentRepository) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.SchoolStudentModel, error) {
	var m model.SchoolStudentModel
	err := r.db.DB(ctx).
		Where("school_student_id = ? AND school_student_school_id = ?", id, schoolID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, id)
	}
	return &m, nil
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *StudentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SchoolStudentModel, error) {
	var m model.SchoolStudentModel
	err := database.ForUpdate(r.db.DB(ctx)).
		Where("school_student_id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, id)
	}
	return &m, nil
}

// FindByIDs returns the students that exist in the school; missing ids are simply absent.
func (r *StudentRepository) FindByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]model.SchoolStudentModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.SchoolStudentModel
	err := r.db.DB(ctx).
		Where("school_student_school_id = ? AND school_student_id IN ?", schoolID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil data santri").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

func (r *StudentRepository) ListActiveByUnit(ctx context.Context, schoolID uuid.UUID, unitCode string) ([]model.SchoolStudentModel, error) {
	var rows []model.SchoolStudentModel
	err := r.db.DB(ctx).
		Where("school_student_school_id = ? AND school_student_unit_code = ? AND school_student_status = ?",
			schoolID, unitCode, model.SchoolStudentActive).
		Order("school_student_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil santri aktif").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

type StudentListFilter struct {
	UnitCode *string
	Status   *model.SchoolStudentStatus
	Q        *string
	Limit    int
	Offset   int
}

func (r *StudentRepository) List(ctx context.Context, schoolID uuid.UUID, f StudentListFilter) ([]model.SchoolStudentModel, int64, error) {
	q := r.db.DB(ctx).Model(&model.SchoolStudentModel{}).
		Where("school_student_school_id = ?", schoolID)
	if f.UnitCode != nil {
		q = q.Where("school_student_unit_code = ?", *f.UnitCode)
	}
	if f.Status != nil {
		q = q.Where("school_student_status = ?", *f.Status)
	}
	if f.Q != nil && *f.Q != "" {
		q = q.Where("LOWER(school_student_name) LIKE ?", "%"+strings.ToLower(*f.Q)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal menghitung santri").Mark(ierr.ErrDatabase)
	}
	var rows []model.SchoolStudentModel
	if err := q.Order("school_student_name ASC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal mengambil santri").Mark(ierr.ErrDatabase)
	}
	return rows, total, nil
}

// UpdateProfile writes the lifecycle/profile columns. Finance columns are never touched here.
func (r *StudentRepository) UpdateProfile(ctx context.Context, m *model.SchoolStudentModel) error {
	err := r.db.DB(ctx).Model(m).
		Select(
			"school_student_unit_code",
			"school_student_name",
			"school_student_room",
			"school_student_level",
			"school_student_status",
			"school_student_guardian_name",
			"school_student_guardian_phone",
			"school_student_guardian_email",
			"school_student_updated_at",
		).
		Updates(m).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui santri").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.DB(ctx).Where("school_student_id = ?", id).Delete(&model.SchoolStudentModel{})
	if res.Error != nil {
		return ierr.WithError(res.Error).WithHint("Gagal menghapus santri").Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, id)
	}
	return nil
}

// GetForSettle locks the row for a finance write. Soft-deleted students are
// included: their payment statuses still have to settle.
func (r *StudentRepository) GetForSettle(ctx context.Context, id uuid.UUID) (*model.SchoolStudentModel, error) {
	var m model.SchoolStudentModel
	err := database.ForUpdate(r.db.DB(ctx).Unscoped()).
		Where("school_student_id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, id)
	}
	return &m, nil
}

// AdjustOutstanding adds delta to outstanding_count, floored at 0, in one statement.
func (r *StudentRepository) AdjustOutstanding(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	err := r.db.DB(ctx).Unscoped().Model(&model.SchoolStudentModel{}).
		Where("school_student_id = ?", id).
		UpdateColumn("school_student_outstanding_count",
			gorm.Expr("CASE WHEN school_student_outstanding_count + ? < 0 THEN 0 ELSE school_student_outstanding_count + ? END", delta, delta)).
		Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui saldo santri").Mark(ierr.ErrDatabase)
	}
	return nil
}

// AdjustOutstandingMany applies the same delta to a set of students.
func (r *StudentRepository) AdjustOutstandingMany(ctx context.Context, ids []uuid.UUID, delta int) error {
	if delta == 0 || len(ids) == 0 {
		return nil
	}
	err := r.db.DB(ctx).Model(&model.SchoolStudentModel{}).
		Where("school_student_id IN ?", ids).
		UpdateColumn("school_student_outstanding_count",
			gorm.Expr("CASE WHEN school_student_outstanding_count + ? < 0 THEN 0 ELSE school_student_outstanding_count + ? END", delta, delta)).
		Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui saldo santri").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *StudentRepository) SetPaymentLabel(ctx context.Context, id uuid.UUID, label model.PaymentLabel) error {
	err := r.db.DB(ctx).Unscoped().Model(&model.SchoolStudentModel{}).
		Where("school_student_id = ?", id).
		UpdateColumn("school_student_payment_label", label).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui label pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

// SetPaymentLabelMany is used by issuance where every debited student becomes Unpaid.
func (r *StudentRepository) SetPaymentLabelMany(ctx context.Context, ids []uuid.UUID, label model.PaymentLabel) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.DB(ctx).Model(&model.SchoolStudentModel{}).
		Where("school_student_id IN ?", ids).
		UpdateColumn("school_student_payment_label", label).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui label pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

type UnitActiveCount struct {
	SchoolID uuid.UUID `gorm:"column:school_id"`
	UnitCode string    `gorm:"column:unit_code"`
	Total    int       `gorm:"column:total"`
}

// CountActiveByUnit is the live source of truth for unit counters.
func (r *StudentRepository) CountActiveByUnit(ctx context.Context) ([]UnitActiveCount, error) {
	var out []UnitActiveCount
	err := r.db.DB(ctx).Model(&model.SchoolStudentModel{}).
		Select("school_student_school_id AS school_id, school_student_unit_code AS unit_code, COUNT(*) AS total").
		Where("school_student_status = ?", model.SchoolStudentActive).
		Group("school_student_school_id, school_student_unit_code").
		Scan(&out).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal menghitung santri aktif").Mark(ierr.ErrDatabase)
	}
	return out, nil
}
