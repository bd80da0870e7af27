package service

import (
	"context"
	"strings"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	notifmodel "pesantrenku_backend/internals/features/home/notifications/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// getScoped hides statuses of other schools behind NotFound.
func (s *BillingService) getScoped(ctx context.Context, schoolID *uuid.UUID, id string) (*model.PaymentStatusModel, error) {
	ps, err := s.statuses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if schoolID != nil && ps.PaymentStatusSchoolID != *schoolID {
		return nil, ierr.NewError("payment status belongs to another school").
			WithHint("Status pembayaran tidak ditemukan").
			Mark(ierr.ErrNotFound)
	}
	return ps, nil
}

// applyTransition is the single writer for a payment status change. In one
// transaction it locks invoice, status and student (always in that order),
// persists the new state and event, moves the invoice counters and rewrites the
// student's outstanding count and label. Notifications go out after the
// outermost commit.
func (s *BillingService) applyTransition(ctx context.Context, schoolID *uuid.UUID, id string, cmds ...Command) (*model.PaymentStatusModel, error) {
	for _, c := range cmds {
		if err := validateCommand(c, s.cfg.AllowPartialPayment); err != nil {
			return nil, err
		}
	}
	head, err := s.getScoped(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	var out *model.PaymentStatusModel
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, head.PaymentStatusInvoiceID)
		if err != nil {
			return err
		}
		ps, err := s.statuses.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		for _, cmd := range cmds {
			p, err := planTransition(ps, cmd, s.cfg.AllowPartialPayment)
			if err != nil {
				return err
			}

			if err := s.statuses.UpdateState(ctx, ps.PaymentStatusID, p.next, p.paid); err != nil {
				return err
			}
			ev := p.event
			if err := s.statuses.AppendEvent(ctx, &ev); err != nil {
				return err
			}
			p.event = ev
			if err := s.invoices.ApplyCounters(ctx, inv.InvoiceID, p.invoice); err != nil {
				return err
			}
			applyPlan(ps, p)

			st, err := s.settleStudent(ctx, ps.PaymentStatusStudentID, p.outstanding)
			if err != nil {
				return err
			}

			if kind, ok := noticeKind(cmd.Action); ok {
				n := &notifmodel.GuardianNotice{
					Kind:            kind,
					SchoolID:        ps.PaymentStatusSchoolID,
					StudentID:       ps.PaymentStatusStudentID,
					PaymentStatusID: ps.PaymentStatusID,
					StudentName:     st.SchoolStudentName,
					GuardianName:    st.SchoolStudentGuardianName,
					GuardianPhone:   st.SchoolStudentGuardianPhone,
					GuardianEmail:   st.SchoolStudentGuardianEmail,
					InvoiceTitle:    inv.InvoiceTitle,
					Amount:          p.amount,
					Reason:          reasonText(cmd),
				}
				database.AfterCommit(ctx, func(ctx context.Context) { s.notify(ctx, n) })
			}

			s.log.Infow("payment status transition",
				"payment_status_id", ps.PaymentStatusID,
				"action", cmd.Action,
				"to", p.next,
				"paid", p.paid.String(),
			)
		}
		out = ps
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func noticeKind(a Action) (notifmodel.NoticeKind, bool) {
	switch a {
	case ActionApprove:
		return notifmodel.NoticePaymentApproved, true
	case ActionReject:
		return notifmodel.NoticePaymentRejected, true
	case ActionRevoke:
		return notifmodel.NoticePaymentRevoked, true
	}
	return "", false
}

func reasonText(cmd Command) string {
	if cmd.ReasonCode == model.ReasonOther {
		return strings.TrimSpace(cmd.ReasonNote)
	}
	if note := strings.TrimSpace(cmd.ReasonNote); note != "" {
		return cmd.ReasonCode + " (" + note + ")"
	}
	return cmd.ReasonCode
}

/* =========================================================
   Operasi publik
========================================================= */

type SubmitInput struct {
	Partial  bool
	Amount   *decimal.Decimal
	ProofRef string
	Method   model.PaymentMethod
	ActorID  *uuid.UUID
}

// SubmitPayment records a guardian's proof. Paid is untouched until verification.
func (s *BillingService) SubmitPayment(ctx context.Context, schoolID uuid.UUID, id string, in SubmitInput) (*model.PaymentStatusModel, error) {
	return s.applyTransition(ctx, &schoolID, id, Command{
		Action:    ActionSubmit,
		Partial:   in.Partial,
		Amount:    in.Amount,
		Method:    in.Method,
		ProofRef:  in.ProofRef,
		ActorID:   in.ActorID,
		ActorRole: model.ActorGuardian,
	})
}

type VerifyInput struct {
	Approve    bool
	ReasonCode string
	ReasonNote string
	ActorID    *uuid.UUID
}

// VerifyPayment approves or rejects the pending submission.
func (s *BillingService) VerifyPayment(ctx context.Context, schoolID uuid.UUID, id string, in VerifyInput) (*model.PaymentStatusModel, error) {
	cmd := Command{
		Action:     ActionApprove,
		ActorID:    in.ActorID,
		ActorRole:  model.ActorStaff,
		ReasonCode: in.ReasonCode,
		ReasonNote: in.ReasonNote,
	}
	if !in.Approve {
		cmd.Action = ActionReject
	}
	return s.applyTransition(ctx, &schoolID, id, cmd)
}

type RevokeInput struct {
	ReasonCode string
	ReasonNote string
	ActorID    *uuid.UUID
}

func (s *BillingService) RevokePaidStatus(ctx context.Context, schoolID uuid.UUID, id string, in RevokeInput) (*model.PaymentStatusModel, error) {
	return s.applyTransition(ctx, &schoolID, id, Command{
		Action:     ActionRevoke,
		ReasonCode: in.ReasonCode,
		ReasonNote: in.ReasonNote,
		ActorID:    in.ActorID,
		ActorRole:  model.ActorStaff,
	})
}

// SettleGatewayPayment records a confirmed gateway payment as submission plus
// approval in one transaction. The bool reports whether the money was applied:
// a status that is already paid is left alone and the caller owes a refund.
func (s *BillingService) SettleGatewayPayment(ctx context.Context, id, orderID string, meta datatypes.JSON) (*model.PaymentStatusModel, bool, error) {
	ps, err := s.statuses.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if ps.PaymentStatusStatus == model.PaymentStatusPaid {
		s.log.Warnw("gateway settlement on paid status, refund required",
			"payment_status_id", id,
			"order_id", orderID,
			"paid", ps.PaymentStatusPaid.String(),
		)
		return ps, false, nil
	}
	ps, err = s.applyTransition(ctx, nil, id,
		Command{
			Action:    ActionSubmit,
			Method:    model.PaymentMethodGateway,
			ProofRef:  orderID,
			ActorRole: model.ActorSystem,
			Meta:      meta,
		},
		Command{
			Action:    ActionApprove,
			ActorRole: model.ActorSystem,
			Meta:      meta,
		},
	)
	if err != nil {
		return nil, false, err
	}
	return ps, true, nil
}

// GetPaymentStatus returns one status with its history.
func (s *BillingService) GetPaymentStatus(ctx context.Context, schoolID uuid.UUID, id string) (*model.PaymentStatusModel, error) {
	if _, err := s.getScoped(ctx, &schoolID, id); err != nil {
		return nil, err
	}
	return s.statuses.GetWithHistory(ctx, id)
}
