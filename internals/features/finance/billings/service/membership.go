package service

import (
	"context"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type AddMembersResult struct {
	Added         []uuid.UUID `json:"added"`
	AlreadyMember []uuid.UUID `json:"already_member"`
	NotFound      []uuid.UUID `json:"not_found"`
	WrongUnit     []uuid.UUID `json:"wrong_unit"`
	Failed        []uuid.UUID `json:"failed"`
	AddedCount    int         `json:"added_count"`
}

type RemoveMembersResult struct {
	Removed      []uuid.UUID `json:"removed"`
	Refused      []uuid.UUID `json:"refused"`
	NotMember    []uuid.UUID `json:"not_member"`
	Failed       []uuid.UUID `json:"failed"`
	RemovedCount int         `json:"removed_count"`
}

func (s *BillingService) issuedInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*model.InvoiceModel, error) {
	inv, err := s.invoices.Get(ctx, schoolID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.InvoiceIssuedAt == nil {
		return nil, ierr.NewError("invoice not issued yet").
			WithHint("Tagihan belum selesai diterbitkan").
			Mark(ierr.ErrInvalidOperation)
	}
	return inv, nil
}

type memberOutcome int

const (
	outcomeDone memberOutcome = iota
	outcomeAlreadyMember
	outcomeNotFound
	outcomeWrongUnit
	outcomeRefused
	outcomeNotMember
)

// AddStudentsToInvoice debits each new member in its own transaction.
func (s *BillingService) AddStudentsToInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID, studentIDs []uuid.UUID) (*AddMembersResult, error) {
	if _, err := s.issuedInvoice(ctx, schoolID, invoiceID); err != nil {
		return nil, err
	}
	res := &AddMembersResult{}
	for _, sid := range lo.Uniq(studentIDs) {
		out, err := s.addMember(ctx, schoolID, invoiceID, sid)
		if err != nil {
			s.log.Warnw("add member failed", "invoice_id", invoiceID, "student_id", sid, "err", err)
			res.Failed = append(res.Failed, sid)
			continue
		}
		switch out {
		case outcomeDone:
			res.Added = append(res.Added, sid)
		case outcomeAlreadyMember:
			res.AlreadyMember = append(res.AlreadyMember, sid)
		case outcomeNotFound:
			res.NotFound = append(res.NotFound, sid)
		case outcomeWrongUnit:
			res.WrongUnit = append(res.WrongUnit, sid)
		}
	}
	res.AddedCount = len(res.Added)
	s.log.Infow("invoice members added",
		"invoice_id", invoiceID,
		"added", res.AddedCount,
		"already_member", len(res.AlreadyMember),
		"not_found", len(res.NotFound),
		"wrong_unit", len(res.WrongUnit),
		"failed", len(res.Failed),
	)
	return res, nil
}

func (s *BillingService) addMember(ctx context.Context, schoolID, invoiceID, studentID uuid.UUID) (memberOutcome, error) {
	var out memberOutcome
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.HasMember(studentID) {
			out = outcomeAlreadyMember
			return nil
		}
		st, err := s.students.Get(ctx, schoolID, studentID)
		if ierr.IsNotFound(err) {
			out = outcomeNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if st.SchoolStudentUnitCode != inv.InvoiceUnitCode {
			out = outcomeWrongUnit
			return nil
		}

		row := newPaymentStatus(inv, *st)
		have, err := s.statuses.ExistingKeys(ctx, []string{row.PaymentStatusID})
		if err != nil {
			return err
		}
		if _, ok := have[row.PaymentStatusID]; !ok {
			if err := s.statuses.CreateBatch(ctx, []model.PaymentStatusModel{row}); err != nil {
				return err
			}
			if err := s.students.AdjustOutstanding(ctx, studentID, +1); err != nil {
				return err
			}
			if err := s.students.SetPaymentLabel(ctx, studentID, studentmodel.PaymentLabelUnpaid); err != nil {
				return err
			}
		}

		members := append(append([]uuid.UUID{}, inv.InvoiceSelectedStudentIDs...), studentID)
		if err := s.invoices.UpdateMembers(ctx, invoiceID, members, +1); err != nil {
			return err
		}
		out = outcomeDone
		return nil
	})
	return out, err
}

// RemoveStudentsFromInvoice refuses students whose payment is settled or
// awaiting verification and keeps going with the rest.
func (s *BillingService) RemoveStudentsFromInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID, studentIDs []uuid.UUID) (*RemoveMembersResult, error) {
	if _, err := s.issuedInvoice(ctx, schoolID, invoiceID); err != nil {
		return nil, err
	}
	res := &RemoveMembersResult{}
	for _, sid := range lo.Uniq(studentIDs) {
		out, err := s.removeMember(ctx, invoiceID, sid)
		if err != nil {
			s.log.Warnw("remove member failed", "invoice_id", invoiceID, "student_id", sid, "err", err)
			res.Failed = append(res.Failed, sid)
			continue
		}
		switch out {
		case outcomeDone:
			res.Removed = append(res.Removed, sid)
		case outcomeRefused:
			res.Refused = append(res.Refused, sid)
		case outcomeNotMember:
			res.NotMember = append(res.NotMember, sid)
		}
	}
	res.RemovedCount = len(res.Removed)
	s.log.Infow("invoice members removed",
		"invoice_id", invoiceID,
		"removed", res.RemovedCount,
		"refused", len(res.Refused),
		"not_member", len(res.NotMember),
		"failed", len(res.Failed),
	)
	return res, nil
}

func (s *BillingService) removeMember(ctx context.Context, invoiceID, studentID uuid.UUID) (memberOutcome, error) {
	var out memberOutcome
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		ps, err := s.statuses.GetForUpdate(ctx, model.PaymentStatusKey(invoiceID, studentID))
		if ierr.IsNotFound(err) {
			out = outcomeNotMember
			if inv.HasMember(studentID) {
				// daftar anggota tertinggal dari status; samakan
				return s.invoices.UpdateMembers(ctx, invoiceID, without(inv.InvoiceSelectedStudentIDs, studentID), 0)
			}
			return nil
		}
		if err != nil {
			return err
		}
		if ps.PaymentStatusStatus == model.PaymentStatusPaid ||
			ps.PaymentStatusStatus == model.PaymentStatusAwaitingVerification {
			out = outcomeRefused
			return nil
		}

		if err := s.statuses.Delete(ctx, ps.PaymentStatusID); err != nil {
			return err
		}
		if _, err := s.settleStudent(ctx, studentID, -1); err != nil {
			return err
		}
		if err := s.invoices.UpdateMembers(ctx, invoiceID, without(inv.InvoiceSelectedStudentIDs, studentID), -1); err != nil {
			return err
		}
		out = outcomeDone
		return nil
	})
	return out, err
}

func without(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	return lo.Filter(ids, func(id uuid.UUID, _ int) bool { return id != drop })
}
