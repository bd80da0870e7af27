package service

import (
	"testing"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusAt(state model.PaymentStatusState, paid, total int64, history ...model.PaymentStatusEventModel) *model.PaymentStatusModel {
	return &model.PaymentStatusModel{
		PaymentStatusID:     "inv_stu",
		PaymentStatusStatus: state,
		PaymentStatusPaid:   decimal.NewFromInt(paid),
		PaymentStatusTotal:  decimal.NewFromInt(total),
		History:             history,
	}
}

func event(t model.PaymentEventType, amount int64) model.PaymentStatusEventModel {
	return model.PaymentStatusEventModel{
		PaymentStatusEventType:   t,
		PaymentStatusEventAmount: decimal.NewFromInt(amount),
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		name        string
		outstanding int
		awaiting    int64
		want        studentmodel.PaymentLabel
	}{
		{"nothing owed", 0, 0, studentmodel.PaymentLabelPaid},
		{"negative treated as settled", -1, 0, studentmodel.PaymentLabelPaid},
		{"owes without proof", 2, 0, studentmodel.PaymentLabelUnpaid},
		{"owes with pending proof", 1, 1, studentmodel.PaymentLabelAwaitingVerification},
		{"stale awaiting count ignored when settled", 0, 3, studentmodel.PaymentLabelPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labelFor(tt.outstanding, tt.awaiting))
		})
	}
}

func TestPlanTransitionTable(t *testing.T) {
	fullSubmit := Command{Action: ActionSubmit, ProofRef: "proof", Method: model.PaymentMethodCash}
	reject := Command{Action: ActionReject, ReasonCode: "Nominal tidak sesuai"}
	revoke := Command{Action: ActionRevoke, ReasonCode: "Salah tagihan"}

	tests := []struct {
		name      string
		ps        *model.PaymentStatusModel
		cmd       Command
		next      model.PaymentStatusState
		paid      int64
		waiting   int
		paidDelta int
		owed      int
		evType    model.PaymentEventType
		evAmount  int64
	}{
		{
			name: "unpaid submit full",
			ps:   statusAt(model.PaymentStatusUnpaid, 0, 100000),
			cmd:  fullSubmit,
			next: model.PaymentStatusAwaitingVerification, paid: 0,
			waiting: 1, evType: model.PaymentEventFullPayment, evAmount: 100000,
		},
		{
			name: "awaiting resubmit keeps counter",
			ps:   statusAt(model.PaymentStatusAwaitingVerification, 0, 100000, event(model.PaymentEventFullPayment, 100000)),
			cmd:  fullSubmit,
			next: model.PaymentStatusAwaitingVerification, paid: 0,
			evType: model.PaymentEventFullPayment, evAmount: 100000,
		},
		{
			name: "approve full",
			ps:   statusAt(model.PaymentStatusAwaitingVerification, 0, 100000, event(model.PaymentEventFullPayment, 100000)),
			cmd:  Command{Action: ActionApprove},
			next: model.PaymentStatusPaid, paid: 100000,
			waiting: -1, paidDelta: 1, owed: -1,
			evType: model.PaymentEventVerification, evAmount: 100000,
		},
		{
			name: "approve partial stays unpaid",
			ps:   statusAt(model.PaymentStatusAwaitingVerification, 0, 100000, event(model.PaymentEventPartialPayment, 30000)),
			cmd:  Command{Action: ActionApprove},
			next: model.PaymentStatusUnpaid, paid: 30000,
			waiting: -1,
			evType:  model.PaymentEventVerification, evAmount: 30000,
		},
		{
			name: "approve uses latest submission",
			ps: statusAt(model.PaymentStatusAwaitingVerification, 0, 100000,
				event(model.PaymentEventPartialPayment, 30000),
				event(model.PaymentEventRejection, 30000),
				event(model.PaymentEventPartialPayment, 50000)),
			cmd:  Command{Action: ActionApprove},
			next: model.PaymentStatusUnpaid, paid: 50000,
			waiting: -1,
			evType:  model.PaymentEventVerification, evAmount: 50000,
		},
		{
			name: "approve caps paid at total",
			ps:   statusAt(model.PaymentStatusAwaitingVerification, 80000, 100000, event(model.PaymentEventFullPayment, 50000)),
			cmd:  Command{Action: ActionApprove},
			next: model.PaymentStatusPaid, paid: 100000,
			waiting: -1, paidDelta: 1, owed: -1,
			evType: model.PaymentEventVerification, evAmount: 20000,
		},
		{
			name: "reject",
			ps:   statusAt(model.PaymentStatusAwaitingVerification, 0, 100000, event(model.PaymentEventFullPayment, 100000)),
			cmd:  reject,
			next: model.PaymentStatusUnpaid, paid: 0,
			waiting: -1,
			evType:  model.PaymentEventRejection, evAmount: 100000,
		},
		{
			name: "revoke reverts verification amount",
			ps: statusAt(model.PaymentStatusPaid, 100000, 100000,
				event(model.PaymentEventPartialPayment, 40000),
				event(model.PaymentEventVerification, 40000),
				event(model.PaymentEventFullPayment, 60000),
				event(model.PaymentEventVerification, 60000)),
			cmd:  revoke,
			next: model.PaymentStatusUnpaid, paid: 40000,
			paidDelta: -1, owed: 1,
			evType: model.PaymentEventRevocation, evAmount: 60000,
		},
		{
			name: "revoke falls back to submission",
			ps:   statusAt(model.PaymentStatusPaid, 100000, 100000, event(model.PaymentEventFullPayment, 100000)),
			cmd:  revoke,
			next: model.PaymentStatusUnpaid, paid: 0,
			paidDelta: -1, owed: 1,
			evType: model.PaymentEventRevocation, evAmount: 100000,
		},
		{
			name: "revoke without history clears paid",
			ps:   statusAt(model.PaymentStatusPaid, 100000, 100000),
			cmd:  revoke,
			next: model.PaymentStatusUnpaid, paid: 0,
			paidDelta: -1, owed: 1,
			evType: model.PaymentEventRevocation, evAmount: 100000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := planTransition(tt.ps, tt.cmd, false)
			require.NoError(t, err)
			assert.Equal(t, tt.next, p.next)
			assert.True(t, decimal.NewFromInt(tt.paid).Equal(p.paid), "paid %s", p.paid)
			assert.Equal(t, tt.waiting, p.invoice.WaitingVerification)
			assert.Equal(t, tt.paidDelta, p.invoice.Paid)
			assert.Equal(t, tt.owed, p.outstanding)
			assert.Equal(t, tt.evType, p.event.PaymentStatusEventType)
			assert.True(t, decimal.NewFromInt(tt.evAmount).Equal(p.event.PaymentStatusEventAmount), "event amount %s", p.event.PaymentStatusEventAmount)
			assert.Equal(t, tt.ps.PaymentStatusID, p.event.PaymentStatusEventPaymentStatusID)
		})
	}
}

func TestPlanTransitionRejectsIllegalMoves(t *testing.T) {
	submit := Command{Action: ActionSubmit, ProofRef: "proof", Method: model.PaymentMethodCash}
	tests := []struct {
		name  string
		state model.PaymentStatusState
		cmd   Command
	}{
		{"submit on paid", model.PaymentStatusPaid, submit},
		{"approve on unpaid", model.PaymentStatusUnpaid, Command{Action: ActionApprove}},
		{"approve on paid", model.PaymentStatusPaid, Command{Action: ActionApprove}},
		{"reject on unpaid", model.PaymentStatusUnpaid, Command{Action: ActionReject, ReasonCode: "Salah tagihan"}},
		{"revoke on awaiting", model.PaymentStatusAwaitingVerification, Command{Action: ActionRevoke, ReasonCode: "Salah tagihan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paid := int64(0)
			if tt.state == model.PaymentStatusPaid {
				paid = 100000
			}
			_, err := planTransition(statusAt(tt.state, paid, 100000), tt.cmd, true)
			assert.True(t, ierr.IsInvalidOperation(err), "got %v", err)
		})
	}
}

func TestPlanTransitionValidation(t *testing.T) {
	amount := func(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }
	unpaid := statusAt(model.PaymentStatusUnpaid, 20000, 100000)

	tests := []struct {
		name         string
		cmd          Command
		allowPartial bool
	}{
		{"partial disabled", Command{Action: ActionSubmit, Partial: true, Amount: amount(10), ProofRef: "p", Method: model.PaymentMethodCash}, false},
		{"partial without amount", Command{Action: ActionSubmit, Partial: true, ProofRef: "p", Method: model.PaymentMethodCash}, true},
		{"partial above remaining", Command{Action: ActionSubmit, Partial: true, Amount: amount(80001), ProofRef: "p", Method: model.PaymentMethodCash}, true},
		{"partial zero", Command{Action: ActionSubmit, Partial: true, Amount: amount(0), ProofRef: "p", Method: model.PaymentMethodCash}, true},
		{"full with wrong amount", Command{Action: ActionSubmit, Amount: amount(100000), ProofRef: "p", Method: model.PaymentMethodCash}, true},
		{"missing proof", Command{Action: ActionSubmit, Method: model.PaymentMethodCash}, true},
		{"missing method", Command{Action: ActionSubmit, ProofRef: "p"}, true},
		{"other without note", Command{Action: ActionReject, ReasonCode: model.ReasonOther, ReasonNote: "  "}, true},
		{"unknown action", Command{Action: "refund"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planTransition(unpaid, tt.cmd, tt.allowPartial)
			assert.True(t, ierr.IsValidation(err), "got %v", err)
		})
	}

	t.Run("full amount equal to remaining is accepted", func(t *testing.T) {
		p, err := planTransition(unpaid, Command{Action: ActionSubmit, Amount: amount(80000), ProofRef: "p", Method: model.PaymentMethodCash}, false)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(80000).Equal(p.event.PaymentStatusEventAmount))
	})
}

func TestReasonText(t *testing.T) {
	assert.Equal(t, "Salah tagihan", reasonText(Command{ReasonCode: "Salah tagihan"}))
	assert.Equal(t, "Salah tagihan (bulan lalu)", reasonText(Command{ReasonCode: "Salah tagihan", ReasonNote: "bulan lalu"}))
	assert.Equal(t, "dobel transfer", reasonText(Command{ReasonCode: model.ReasonOther, ReasonNote: " dobel transfer "}))
}
