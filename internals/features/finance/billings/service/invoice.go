package service

import (
	"context"
	"sort"
	"strings"
	"time"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreateInvoiceInput struct {
	SchoolID           uuid.UUID
	UnitCode           string
	Title              string
	Nominal            decimal.Decimal
	DueDate            *time.Time
	Note               *string
	SelectedStudentIDs []uuid.UUID
	CreatedBy          *uuid.UUID
}

func (s *BillingService) validateInvoice(in CreateInvoiceInput) error {
	if in.SchoolID == uuid.Nil {
		return ierr.NewError("school id is required").Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(in.UnitCode) == "" {
		return ierr.NewError("unit code is required").
			WithHint("Unit/asrama wajib diisi").
			Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return ierr.NewError("title is required").
			WithHint("Judul tagihan wajib diisi").
			Mark(ierr.ErrValidation)
	}
	if !in.Nominal.IsPositive() {
		return ierr.NewError("nominal must be positive").
			WithHint("Nominal tagihan harus lebih dari 0").
			Mark(ierr.ErrValidation)
	}
	if s.cfg.MinimumNominal.IsPositive() && in.Nominal.LessThan(s.cfg.MinimumNominal) {
		return ierr.NewError("nominal below minimum").
			WithHintf("Nominal tagihan minimal %s", s.cfg.MinimumNominal.StringFixed(0)).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreateInvoice stores the invoice and issues it right away. When issuance
// fails the invoice is still returned together with the error; the retry job
// finishes it later.
func (s *BillingService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*model.InvoiceModel, *IssueResult, error) {
	if err := s.validateInvoice(in); err != nil {
		return nil, nil, err
	}

	selected := lo.Uniq(lo.Filter(in.SelectedStudentIDs, func(id uuid.UUID, _ int) bool { return id != uuid.Nil }))
	inv := &model.InvoiceModel{
		InvoiceSchoolID:           in.SchoolID,
		InvoiceUnitCode:           strings.TrimSpace(in.UnitCode),
		InvoiceTitle:              strings.TrimSpace(in.Title),
		InvoiceNominal:            in.Nominal,
		InvoiceDueDate:            in.DueDate,
		InvoiceNote:               in.Note,
		InvoiceMode:               model.ModeFor(selected),
		InvoiceSelectedStudentIDs: selected,
		InvoiceCreatedByUserID:    in.CreatedBy,
	}
	if inv.InvoiceMode == model.InvoiceModeBroadcast && s.counter != nil {
		// estimasi awal; ditimpa jumlah aktual saat terbit
		if est, err := s.counter.ActiveStudents(ctx, in.SchoolID, inv.InvoiceUnitCode); err == nil {
			inv.InvoiceNumberOfStudentsInvoiced = est
		}
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, nil, err
	}
	s.log.Infow("invoice created",
		"invoice_id", inv.InvoiceID,
		"school_id", inv.InvoiceSchoolID,
		"unit_code", inv.InvoiceUnitCode,
		"mode", inv.InvoiceMode,
	)

	res, err := s.IssueInvoice(ctx, inv.InvoiceID)
	if fresh, gerr := s.invoices.GetByID(ctx, inv.InvoiceID); gerr == nil {
		inv = fresh
	}
	return inv, res, err
}

// IssueInvoiceFor is the tenant-scoped manual trigger.
func (s *BillingService) IssueInvoiceFor(ctx context.Context, schoolID, invoiceID uuid.UUID) (*IssueResult, error) {
	if _, err := s.invoices.Get(ctx, schoolID, invoiceID); err != nil {
		return nil, err
	}
	return s.IssueInvoice(ctx, invoiceID)
}

func (s *BillingService) GetInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*model.InvoiceModel, error) {
	return s.invoices.Get(ctx, schoolID, invoiceID)
}

func (s *BillingService) ListInvoices(ctx context.Context, schoolID uuid.UUID, f repository.InvoiceListFilter) ([]model.InvoiceModel, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.invoices.List(ctx, schoolID, f)
}

// DeleteInvoice removes the invoice and every status it issued, reversing the
// debit of each student whose status was not Paid. A second call is NotFound.
func (s *BillingService) DeleteInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) error {
	if _, err := s.invoices.Get(ctx, schoolID, invoiceID); err != nil {
		return err
	}

	var reversed int
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.invoices.GetForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		rows, err := s.statuses.ListForInvoiceLocked(ctx, invoiceID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(rows))
		debited := make([]uuid.UUID, 0, len(rows))
		for _, ps := range rows {
			ids = append(ids, ps.PaymentStatusID)
			if ps.PaymentStatusStatus != model.PaymentStatusPaid {
				debited = append(debited, ps.PaymentStatusStudentID)
			}
		}
		if err := s.statuses.Delete(ctx, ids...); err != nil {
			return err
		}

		// urutan kunci santri konsisten agar tidak deadlock
		sort.Slice(debited, func(i, j int) bool { return debited[i].String() < debited[j].String() })
		for _, sid := range lo.Uniq(debited) {
			if _, err := s.settleStudent(ctx, sid, -1); err != nil {
				return err
			}
		}
		reversed = len(debited)
		return s.invoices.SoftDelete(ctx, invoiceID)
	})
	if err != nil {
		return err
	}
	s.log.Infow("invoice deleted", "invoice_id", invoiceID, "reversed", reversed)
	return nil
}
