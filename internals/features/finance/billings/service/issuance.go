package service

import (
	"context"
	"time"

	"pesantrenku_backend/internals/features/finance/billings/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// IssueResult reports one issuance run. Skips are counts, never errors.
type IssueResult struct {
	InvoiceID        uuid.UUID `json:"invoice_id"`
	Mode             string    `json:"mode"`
	Targeted         int       `json:"targeted"`
	Created          int       `json:"created"`
	AlreadyIssued    int       `json:"already_issued"`
	SkippedNotFound  int       `json:"skipped_not_found"`
	SkippedWrongUnit int       `json:"skipped_wrong_unit"`
	Estimate         int       `json:"estimate,omitempty"`
	Completed        bool      `json:"completed"`
}

// resolveTarget builds the population for an invoice.
func (s *BillingService) resolveTarget(ctx context.Context, inv *model.InvoiceModel, res *IssueResult) ([]studentmodel.SchoolStudentModel, error) {
	if inv.InvoiceMode == model.InvoiceModeSelective {
		ids := lo.Uniq([]uuid.UUID(inv.InvoiceSelectedStudentIDs))
		found, err := s.students.FindByIDs(ctx, inv.InvoiceSchoolID, ids)
		if err != nil {
			return nil, err
		}
		res.SkippedNotFound = len(ids) - len(found)
		target := lo.Filter(found, func(st studentmodel.SchoolStudentModel, _ int) bool {
			return st.SchoolStudentUnitCode == inv.InvoiceUnitCode
		})
		res.SkippedWrongUnit = len(found) - len(target)
		return target, nil
	}

	if s.counter != nil {
		if est, err := s.counter.ActiveStudents(ctx, inv.InvoiceSchoolID, inv.InvoiceUnitCode); err == nil {
			res.Estimate = est
		} else {
			s.log.Warnw("unit counter unavailable", "invoice_id", inv.InvoiceID, "err", err)
		}
	}
	return s.students.ListActiveByUnit(ctx, inv.InvoiceSchoolID, inv.InvoiceUnitCode)
}

// IssueInvoice creates one payment status per targeted student. Chunks commit
// independently; a pair that already exists is skipped, so the whole run is
// safe to repeat until issued_at is stamped.
func (s *BillingService) IssueInvoice(ctx context.Context, invoiceID uuid.UUID) (*IssueResult, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	res := &IssueResult{InvoiceID: inv.InvoiceID, Mode: string(inv.InvoiceMode)}
	if inv.InvoiceIssuedAt != nil {
		res.Completed = true
		return res, nil
	}

	target, err := s.resolveTarget(ctx, inv, res)
	if err != nil {
		return nil, err
	}
	res.Targeted = len(target)

	if len(target) == 0 {
		// status dari putaran sebelumnya tetap harus tercatat sebagai anggota
		prior, err := s.statuses.StudentIDsByInvoice(ctx, inv.InvoiceID)
		if err != nil {
			return nil, err
		}
		if len(prior) == 0 {
			s.log.Infow("issuance skipped, empty target",
				"invoice_id", inv.InvoiceID,
				"unit_code", inv.InvoiceUnitCode,
				"mode", inv.InvoiceMode,
				"not_found", res.SkippedNotFound,
				"wrong_unit", res.SkippedWrongUnit,
			)
			return res, nil
		}
	}
	if inv.InvoiceMode == model.InvoiceModeBroadcast && res.Estimate != len(target) {
		s.log.Infow("unit counter differs from live count",
			"invoice_id", inv.InvoiceID, "estimate", res.Estimate, "actual", len(target))
	}

	for i, chunk := range lo.Chunk(target, s.cfg.IssuanceBatchSize) {
		created, existing, err := s.issueChunk(ctx, inv, chunk)
		if err != nil {
			s.log.Errorw("issuance chunk failed",
				"invoice_id", inv.InvoiceID, "chunk", i, "size", len(chunk), "err", err)
			return res, err
		}
		res.Created += created
		res.AlreadyIssued += existing
	}

	// Membership is read back from the statuses so it includes pairs created by
	// an earlier, interrupted run whose student has since left the target.
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.invoices.GetForUpdate(ctx, inv.InvoiceID); err != nil {
			return err
		}
		members, err := s.statuses.StudentIDsByInvoice(ctx, inv.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.invoices.SetMembership(ctx, inv.InvoiceID, members); err != nil {
			return err
		}
		return s.invoices.MarkIssued(ctx, inv.InvoiceID, s.now())
	})
	if err != nil {
		return res, err
	}
	res.Completed = true
	s.log.Infow("invoice issued",
		"invoice_id", inv.InvoiceID,
		"targeted", res.Targeted,
		"created", res.Created,
		"already_issued", res.AlreadyIssued,
	)
	return res, nil
}

func newPaymentStatus(inv *model.InvoiceModel, st studentmodel.SchoolStudentModel) model.PaymentStatusModel {
	return model.PaymentStatusModel{
		PaymentStatusID:                   model.PaymentStatusKey(inv.InvoiceID, st.SchoolStudentID),
		PaymentStatusInvoiceID:            inv.InvoiceID,
		PaymentStatusStudentID:            st.SchoolStudentID,
		PaymentStatusSchoolID:             inv.InvoiceSchoolID,
		PaymentStatusStatus:               model.PaymentStatusUnpaid,
		PaymentStatusTotal:                inv.InvoiceNominal,
		PaymentStatusStudentNameSnapshot:  st.SchoolStudentName,
		PaymentStatusRoomSnapshot:         st.SchoolStudentRoom,
		PaymentStatusLevelSnapshot:        st.SchoolStudentLevel,
		PaymentStatusUnitCodeSnapshot:     st.SchoolStudentUnitCode,
		PaymentStatusInvoiceTitleSnapshot: inv.InvoiceTitle,
	}
}

// issueChunk debits only the pairs it actually creates.
func (s *BillingService) issueChunk(ctx context.Context, inv *model.InvoiceModel, chunk []studentmodel.SchoolStudentModel) (created, existing int, err error) {
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.invoices.GetForUpdate(ctx, inv.InvoiceID); err != nil {
			return err
		}
		keys := lo.Map(chunk, func(st studentmodel.SchoolStudentModel, _ int) string {
			return model.PaymentStatusKey(inv.InvoiceID, st.SchoolStudentID)
		})
		have, err := s.statuses.ExistingKeys(ctx, keys)
		if err != nil {
			return err
		}

		rows := make([]model.PaymentStatusModel, 0, len(chunk))
		ids := make([]uuid.UUID, 0, len(chunk))
		for _, st := range chunk {
			row := newPaymentStatus(inv, st)
			if _, ok := have[row.PaymentStatusID]; ok {
				continue
			}
			rows = append(rows, row)
			ids = append(ids, st.SchoolStudentID)
		}
		if err := s.statuses.CreateBatch(ctx, rows); err != nil {
			return err
		}
		if err := s.students.AdjustOutstandingMany(ctx, ids, +1); err != nil {
			return err
		}
		if err := s.students.SetPaymentLabelMany(ctx, ids, studentmodel.PaymentLabelUnpaid); err != nil {
			return err
		}
		created, existing = len(rows), len(chunk)-len(rows)
		return nil
	})
	return created, existing, err
}

// RetryPendingIssuance re-runs issuance for invoices created within the window
// that never got stamped. Used by the scheduler.
func (s *BillingService) RetryPendingIssuance(ctx context.Context) error {
	since := s.now().Add(-s.cfg.IssuanceRetryWindow)
	pending, err := s.invoices.ListUnissuedSince(ctx, since, 50)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		// beri jeda agar tidak bentrok dengan penerbitan yang sedang berjalan dari request
		if s.now().Sub(inv.InvoiceCreatedAt) < time.Minute {
			continue
		}
		if _, err := s.IssueInvoice(ctx, inv.InvoiceID); err != nil {
			s.log.Warnw("issuance retry failed", "invoice_id", inv.InvoiceID, "err", err)
		}
	}
	return nil
}
