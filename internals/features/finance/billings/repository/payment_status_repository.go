package repository

import (
	"context"
	"errors"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentStatusRepository struct {
	db database.IClient
}

func NewPaymentStatusRepository(db database.IClient) *PaymentStatusRepository {
	return &PaymentStatusRepository{db: db}
}

func statusErr(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ierr.WithError(err).
			WithHint("Status pembayaran tidak ditemukan").
			WithReportableDetails(map[string]any{"payment_status_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).WithHint("Gagal mengambil status pembayaran").Mark(ierr.ErrDatabase)
}

func historyOrder(db *gorm.DB) *gorm.DB {
	return db.Order("payment_status_event_id ASC")
}

func (r *PaymentStatusRepository) Get(ctx context.Context, id string) (*model.PaymentStatusModel, error) {
	var m model.PaymentStatusModel
	if err := r.db.DB(ctx).Where("payment_status_id = ?", id).First(&m).Error; err != nil {
		return nil, statusErr(err, id)
	}
	return &m, nil
}

// GetForUpdate locks the status row and loads its full history.
func (r *PaymentStatusRepository) GetForUpdate(ctx context.Context, id string) (*model.PaymentStatusModel, error) {
	var m model.PaymentStatusModel
	err := database.ForUpdate(r.db.DB(ctx)).
		Where("payment_status_id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, statusErr(err, id)
	}
	if err := historyOrder(r.db.DB(ctx)).
		Where("payment_status_event_payment_status_id = ?", id).
		Find(&m.History).Error; err != nil {
		return nil, statusErr(err, id)
	}
	return &m, nil
}

func (r *PaymentStatusRepository) GetWithHistory(ctx context.Context, id string) (*model.PaymentStatusModel, error) {
	var m model.PaymentStatusModel
	err := r.db.DB(ctx).
		Preload("History", historyOrder).
		Where("payment_status_id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, statusErr(err, id)
	}
	return &m, nil
}

// ExistingKeys returns which of the given ids already exist.
func (r *PaymentStatusRepository) ExistingKeys(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []string
	err := r.db.DB(ctx).Model(&model.PaymentStatusModel{}).
		Where("payment_status_id IN ?", ids).
		Pluck("payment_status_id", &found).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal memeriksa status pembayaran").Mark(ierr.ErrDatabase)
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

// CreateBatch inserts rows; an id that already exists is silently skipped.
func (r *PaymentStatusRepository) CreateBatch(ctx context.Context, rows []model.PaymentStatusModel) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "payment_status_id"}}, DoNothing: true}).
		Omit("History").
		Create(&rows).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal membuat status pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *PaymentStatusRepository) UpdateState(ctx context.Context, id string, status model.PaymentStatusState, paid decimal.Decimal) error {
	err := r.db.DB(ctx).Model(&model.PaymentStatusModel{}).
		Where("payment_status_id = ?", id).
		UpdateColumns(map[string]any{
			"payment_status_status":     status,
			"payment_status_paid":       paid,
			"payment_status_updated_at": time.Now(),
		}).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui status pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *PaymentStatusRepository) AppendEvent(ctx context.Context, ev *model.PaymentStatusEventModel) error {
	if err := r.db.DB(ctx).Create(ev).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal mencatat riwayat pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

// ListByStudent returns every status of a student with ordered history, newest invoice first.
func (r *PaymentStatusRepository) ListByStudent(ctx context.Context, schoolID, studentID uuid.UUID) ([]model.PaymentStatusModel, error) {
	var rows []model.PaymentStatusModel
	err := r.db.DB(ctx).
		Preload("History", historyOrder).
		Where("payment_status_school_id = ? AND payment_status_student_id = ?", schoolID, studentID).
		Order("payment_status_created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil riwayat pembayaran").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

type StatusListFilter struct {
	Status *model.PaymentStatusState
	Room   *string
	Level  *string
	Limit  int
	Offset int
}

func (r *PaymentStatusRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID, f StatusListFilter) ([]model.PaymentStatusModel, int64, error) {
	q := r.db.DB(ctx).Model(&model.PaymentStatusModel{}).
		Where("payment_status_invoice_id = ?", invoiceID)
	if f.Status != nil {
		q = q.Where("payment_status_status = ?", *f.Status)
	}
	if f.Room != nil {
		q = q.Where("payment_status_room_snapshot = ?", *f.Room)
	}
	if f.Level != nil {
		q = q.Where("payment_status_level_snapshot = ?", *f.Level)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal menghitung status pembayaran").Mark(ierr.ErrDatabase)
	}

	var rows []model.PaymentStatusModel
	q = q.Preload("History", historyOrder).Order("payment_status_student_name_snapshot ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal mengambil status pembayaran").Mark(ierr.ErrDatabase)
	}
	return rows, total, nil
}

// ListForInvoiceLocked locks every status of the invoice (used by delete).
func (r *PaymentStatusRepository) ListForInvoiceLocked(ctx context.Context, invoiceID uuid.UUID) ([]model.PaymentStatusModel, error) {
	var rows []model.PaymentStatusModel
	err := database.ForUpdate(r.db.DB(ctx)).
		Where("payment_status_invoice_id = ?", invoiceID).
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil status pembayaran").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

// Delete removes statuses and their history.
func (r *PaymentStatusRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.DB(ctx)
	if err := db.Where("payment_status_event_payment_status_id IN ?", ids).
		Delete(&model.PaymentStatusEventModel{}).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menghapus riwayat pembayaran").Mark(ierr.ErrDatabase)
	}
	if err := db.Where("payment_status_id IN ?", ids).
		Delete(&model.PaymentStatusModel{}).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menghapus status pembayaran").Mark(ierr.ErrDatabase)
	}
	return nil
}

// CountByStudentStatus counts a student's statuses in the given state.
func (r *PaymentStatusRepository) CountByStudentStatus(ctx context.Context, studentID uuid.UUID, status model.PaymentStatusState) (int64, error) {
	var n int64
	err := r.db.DB(ctx).Model(&model.PaymentStatusModel{}).
		Where("payment_status_student_id = ? AND payment_status_status = ?", studentID, status).
		Count(&n).Error
	if err != nil {
		return 0, ierr.WithError(err).WithHint("Gagal menghitung status pembayaran").Mark(ierr.ErrDatabase)
	}
	return n, nil
}

// StudentIDsByInvoice lists the students that hold a status on the invoice.
func (r *PaymentStatusRepository) StudentIDsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.DB(ctx).Model(&model.PaymentStatusModel{}).
		Where("payment_status_invoice_id = ?", invoiceID).
		Order("payment_status_id").
		Pluck("payment_status_student_id", &ids).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil anggota tagihan").Mark(ierr.ErrDatabase)
	}
	return ids, nil
}
