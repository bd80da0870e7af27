package service

import (
	"strings"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevoke  Action = "revoke"
)

// Command is one requested state change on a payment status.
type Command struct {
	Action Action

	// submit
	Partial  bool
	Amount   *decimal.Decimal
	Method   model.PaymentMethod
	ProofRef string

	// reject / revoke
	ReasonCode string
	ReasonNote string

	ActorID   *uuid.UUID
	ActorRole model.ActorRole
	Meta      datatypes.JSON
}

// plan is everything one transition writes. Computed without touching the store.
type plan struct {
	next        model.PaymentStatusState
	paid        decimal.Decimal
	event       model.PaymentStatusEventModel
	invoice     repository.CounterDelta
	outstanding int
	amount      decimal.Decimal
}

// validateReason: one of the predefined reasons, or Other with a non-empty note.
func validateReason(code, note string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ierr.NewError("reason is required").
			WithHint("Alasan wajib diisi").
			Mark(ierr.ErrValidation)
	}
	if !model.IsKnownReason(code) {
		return ierr.NewError("unknown reason").
			WithHintf("Alasan %q tidak dikenal", code).
			Mark(ierr.ErrValidation)
	}
	if code == model.ReasonOther && strings.TrimSpace(note) == "" {
		return ierr.NewError("reason note is required for Other").
			WithHint("Alasan lainnya wajib diisi").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// validateCommand checks everything that does not depend on stored state.
func validateCommand(cmd Command, allowPartial bool) error {
	switch cmd.Action {
	case ActionSubmit:
		if cmd.Partial && !allowPartial {
			return ierr.NewError("partial payment disabled").
				WithHint("Pembayaran sebagian tidak diaktifkan").
				Mark(ierr.ErrValidation)
		}
		if cmd.Partial && cmd.Amount == nil {
			return ierr.NewError("amount is required for partial payment").
				WithHint("Nominal pembayaran sebagian wajib diisi").
				Mark(ierr.ErrValidation)
		}
		if strings.TrimSpace(cmd.ProofRef) == "" {
			return ierr.NewError("proof reference is required").
				WithHint("Bukti pembayaran wajib dilampirkan").
				Mark(ierr.ErrValidation)
		}
		if cmd.Method == "" {
			return ierr.NewError("payment method is required").
				WithHint("Metode pembayaran wajib diisi").
				Mark(ierr.ErrValidation)
		}
	case ActionReject, ActionRevoke:
		return validateReason(cmd.ReasonCode, cmd.ReasonNote)
	case ActionApprove:
	default:
		return ierr.NewError("unknown action").Mark(ierr.ErrValidation)
	}
	return nil
}

func illegal(from model.PaymentStatusState, action Action) error {
	return ierr.NewError("illegal payment status transition").
		WithHintf("Aksi %s tidak bisa dilakukan pada status %s", action, from).
		WithReportableDetails(map[string]any{"from": from, "action": action}).
		Mark(ierr.ErrInvalidOperation)
}

func latest(history []model.PaymentStatusEventModel, match func(model.PaymentEventType) bool) *model.PaymentStatusEventModel {
	for i := len(history) - 1; i >= 0; i-- {
		if match(history[i].PaymentStatusEventType) {
			return &history[i]
		}
	}
	return nil
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// planTransition is the state machine. History must be in ULID order.
func planTransition(ps *model.PaymentStatusModel, cmd Command, allowPartial bool) (*plan, error) {
	if err := validateCommand(cmd, allowPartial); err != nil {
		return nil, err
	}

	p := &plan{
		next: ps.PaymentStatusStatus,
		paid: ps.PaymentStatusPaid,
		event: model.PaymentStatusEventModel{
			PaymentStatusEventPaymentStatusID: ps.PaymentStatusID,
			PaymentStatusEventActorID:         cmd.ActorID,
			PaymentStatusEventActorRole:       cmd.ActorRole,
			PaymentStatusEventMeta:            cmd.Meta,
		},
	}

	switch cmd.Action {
	case ActionSubmit:
		if ps.PaymentStatusStatus == model.PaymentStatusPaid {
			return nil, illegal(ps.PaymentStatusStatus, cmd.Action)
		}
		remaining := ps.Remaining()
		if !remaining.IsPositive() {
			return nil, illegal(ps.PaymentStatusStatus, cmd.Action)
		}

		amount := remaining
		evType := model.PaymentEventFullPayment
		if cmd.Partial {
			amount = *cmd.Amount
			evType = model.PaymentEventPartialPayment
			if !amount.IsPositive() || amount.GreaterThan(remaining) {
				return nil, ierr.NewError("amount out of range").
					WithHintf("Nominal harus lebih dari 0 dan maksimal %s", remaining.StringFixed(0)).
					Mark(ierr.ErrValidation)
			}
		} else if cmd.Amount != nil && !cmd.Amount.Equal(remaining) {
			return nil, ierr.NewError("full payment amount mismatch").
				WithHintf("Pembayaran penuh harus sebesar %s", remaining.StringFixed(0)).
				Mark(ierr.ErrValidation)
		}

		method := cmd.Method
		p.event.PaymentStatusEventType = evType
		p.event.PaymentStatusEventAmount = amount
		p.event.PaymentStatusEventMethod = &method
		p.event.PaymentStatusEventProofRef = strPtr(cmd.ProofRef)
		p.next = model.PaymentStatusAwaitingVerification
		p.amount = amount
		// resubmission while awaiting only appends history
		if ps.PaymentStatusStatus == model.PaymentStatusUnpaid {
			p.invoice.WaitingVerification = +1
		}

	case ActionApprove:
		if ps.PaymentStatusStatus != model.PaymentStatusAwaitingVerification {
			return nil, illegal(ps.PaymentStatusStatus, cmd.Action)
		}
		amount := ps.Remaining()
		if sub := latest(ps.History, model.PaymentEventType.IsSubmission); sub != nil {
			amount = sub.PaymentStatusEventAmount
		}
		paid := ps.PaymentStatusPaid.Add(amount)
		if paid.GreaterThan(ps.PaymentStatusTotal) {
			paid = ps.PaymentStatusTotal
		}

		p.event.PaymentStatusEventType = model.PaymentEventVerification
		p.event.PaymentStatusEventAmount = paid.Sub(ps.PaymentStatusPaid)
		p.paid = paid
		p.amount = p.event.PaymentStatusEventAmount
		p.invoice.WaitingVerification = -1
		if paid.GreaterThanOrEqual(ps.PaymentStatusTotal) {
			p.next = model.PaymentStatusPaid
			p.invoice.Paid = +1
			p.outstanding = -1
		} else {
			// cicilan diterima, sisa masih terutang
			p.next = model.PaymentStatusUnpaid
		}

	case ActionReject:
		if ps.PaymentStatusStatus != model.PaymentStatusAwaitingVerification {
			return nil, illegal(ps.PaymentStatusStatus, cmd.Action)
		}
		amount := decimal.Zero
		if sub := latest(ps.History, model.PaymentEventType.IsSubmission); sub != nil {
			amount = sub.PaymentStatusEventAmount
		}
		p.event.PaymentStatusEventType = model.PaymentEventRejection
		p.event.PaymentStatusEventAmount = amount
		p.event.PaymentStatusEventReasonCode = strPtr(cmd.ReasonCode)
		p.event.PaymentStatusEventReasonNote = strPtr(cmd.ReasonNote)
		p.next = model.PaymentStatusUnpaid
		p.amount = amount
		p.invoice.WaitingVerification = -1

	case ActionRevoke:
		if ps.PaymentStatusStatus != model.PaymentStatusPaid {
			return nil, illegal(ps.PaymentStatusStatus, cmd.Action)
		}
		ref := latest(ps.History, func(t model.PaymentEventType) bool { return t == model.PaymentEventVerification })
		if ref == nil {
			ref = latest(ps.History, model.PaymentEventType.IsSubmission)
		}
		amount := ps.PaymentStatusPaid
		if ref != nil {
			amount = ref.PaymentStatusEventAmount
		}
		paid := ps.PaymentStatusPaid.Sub(amount)
		if paid.IsNegative() {
			paid = decimal.Zero
		}

		p.event.PaymentStatusEventType = model.PaymentEventRevocation
		p.event.PaymentStatusEventAmount = ps.PaymentStatusPaid.Sub(paid)
		p.event.PaymentStatusEventReasonCode = strPtr(cmd.ReasonCode)
		p.event.PaymentStatusEventReasonNote = strPtr(cmd.ReasonNote)
		p.paid = paid
		p.amount = p.event.PaymentStatusEventAmount
		p.next = model.PaymentStatusUnpaid
		p.invoice.Paid = -1
		p.outstanding = +1
	}

	return p, nil
}

// applyPlan mirrors a committed plan onto the in-memory record so commands can be chained.
func applyPlan(ps *model.PaymentStatusModel, p *plan) {
	ps.PaymentStatusStatus = p.next
	ps.PaymentStatusPaid = p.paid
	ps.History = append(ps.History, p.event)
}
