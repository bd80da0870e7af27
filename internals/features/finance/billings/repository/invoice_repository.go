package repository

import (
	"context"
	"errors"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db database.IClient
}

func NewInvoiceRepository(db database.IClient) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func invoiceErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ierr.WithError(err).
			WithHint("Tagihan tidak ditemukan").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).WithHint("Gagal mengambil tagihan").Mark(ierr.ErrDatabase)
}

func (r *InvoiceRepository) Create(ctx context.Context, m *model.InvoiceModel) error {
	if err := r.db.DB(ctx).Create(m).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menyimpan tagihan").Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get loads an invoice scoped to its school.
func (r *InvoiceRepository) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.InvoiceModel, error) {
	var m model.InvoiceModel
	err := r.db.DB(ctx).
		Where("invoice_id = ? AND invoice_school_id = ?", id, schoolID).
		First(&m).Error
	if err != nil {
		return nil, invoiceErr(err, id)
	}
	return &m, nil
}

// GetByID is for internal triggers (scheduler, webhook) that have no tenant in hand.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.InvoiceModel, error) {
	var m model.InvoiceModel
	if err := r.db.DB(ctx).Where("invoice_id = ?", id).First(&m).Error; err != nil {
		return nil, invoiceErr(err, id)
	}
	return &m, nil
}

func (r *InvoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.InvoiceModel, error) {
	var m model.InvoiceModel
	if err := database.ForUpdate(r.db.DB(ctx)).Where("invoice_id = ?", id).First(&m).Error; err != nil {
		return nil, invoiceErr(err, id)
	}
	return &m, nil
}

type InvoiceListFilter struct {
	UnitCode *string
	Issued   *bool
	Limit    int
	Offset   int
}

func (r *InvoiceRepository) List(ctx context.Context, schoolID uuid.UUID, f InvoiceListFilter) ([]model.InvoiceModel, int64, error) {
	q := r.db.DB(ctx).Model(&model.InvoiceModel{}).Where("invoice_school_id = ?", schoolID)
	if f.UnitCode != nil {
		q = q.Where("invoice_unit_code = ?", *f.UnitCode)
	}
	if f.Issued != nil {
		if *f.Issued {
			q = q.Where("invoice_issued_at IS NOT NULL")
		} else {
			q = q.Where("invoice_issued_at IS NULL")
		}
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal menghitung tagihan").Mark(ierr.ErrDatabase)
	}
	var rows []model.InvoiceModel
	if err := q.Order("invoice_created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal mengambil tagihan").Mark(ierr.ErrDatabase)
	}
	return rows, total, nil
}

// CounterDelta is applied with col = col + delta so concurrent writers never lose updates.
type CounterDelta struct {
	StudentsInvoiced    int
	WaitingVerification int
	Paid                int
}

func (d CounterDelta) IsZero() bool {
	return d.StudentsInvoiced == 0 && d.WaitingVerification == 0 && d.Paid == 0
}

// clampExpr: col + delta, floored at 0.
func clampExpr(col string, delta int) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

func (r *InvoiceRepository) ApplyCounters(ctx context.Context, id uuid.UUID, d CounterDelta) error {
	if d.IsZero() {
		return nil
	}
	updates := map[string]any{"invoice_updated_at": time.Now()}
	if d.StudentsInvoiced != 0 {
		updates["invoice_number_of_students_invoiced"] = clampExpr("invoice_number_of_students_invoiced", d.StudentsInvoiced)
	}
	if d.WaitingVerification != 0 {
		updates["invoice_number_of_waiting_verification"] = clampExpr("invoice_number_of_waiting_verification", d.WaitingVerification)
	}
	if d.Paid != 0 {
		updates["invoice_number_of_paid"] = clampExpr("invoice_number_of_paid", d.Paid)
	}
	err := r.db.DB(ctx).Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", id).
		UpdateColumns(updates).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui counter tagihan").Mark(ierr.ErrDatabase)
	}
	return nil
}

// SetMembership writes the issued member list and the authoritative invoiced count.
func (r *InvoiceRepository) SetMembership(ctx context.Context, id uuid.UUID, members []uuid.UUID) error {
	err := r.db.DB(ctx).Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", id).
		UpdateColumns(map[string]any{
			"invoice_selected_student_ids":        datatypes.NewJSONSlice(members),
			"invoice_number_of_students_invoiced": len(members),
			"invoice_updated_at":                  time.Now(),
		}).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui anggota tagihan").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *InvoiceRepository) MarkIssued(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.DB(ctx).Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", id).
		UpdateColumns(map[string]any{"invoice_issued_at": at, "invoice_updated_at": at}).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal menandai tagihan terbit").Mark(ierr.ErrDatabase)
	}
	return nil
}

// ListUnissuedSince returns invoices still waiting for a complete issuance.
func (r *InvoiceRepository) ListUnissuedSince(ctx context.Context, since time.Time, limit int) ([]model.InvoiceModel, error) {
	var rows []model.InvoiceModel
	err := r.db.DB(ctx).
		Where("invoice_issued_at IS NULL AND invoice_created_at >= ?", since).
		Order("invoice_created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Gagal mengambil tagihan").Mark(ierr.ErrDatabase)
	}
	return rows, nil
}

// SoftDelete returns NotFound when the invoice is already gone.
func (r *InvoiceRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.DB(ctx).Where("invoice_id = ?", id).Delete(&model.InvoiceModel{})
	if res.Error != nil {
		return ierr.WithError(res.Error).WithHint("Gagal menghapus tagihan").Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return invoiceErr(gorm.ErrRecordNotFound, id)
	}
	return nil
}

// UpdateMembers rewrites the member list and moves the invoiced counter by delta.
func (r *InvoiceRepository) UpdateMembers(ctx context.Context, id uuid.UUID, members []uuid.UUID, delta int) error {
	updates := map[string]any{
		"invoice_selected_student_ids": datatypes.NewJSONSlice(members),
		"invoice_updated_at":           time.Now(),
	}
	if delta != 0 {
		updates["invoice_number_of_students_invoiced"] = clampExpr("invoice_number_of_students_invoiced", delta)
	}
	err := r.db.DB(ctx).Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", id).
		UpdateColumns(updates).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui anggota tagihan").Mark(ierr.ErrDatabase)
	}
	return nil
}
