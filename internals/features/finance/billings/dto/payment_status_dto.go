package dto

import (
	"strings"

	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/repository"

	"github.com/shopspring/decimal"
)

// Submit bukti oleh wali. amount kosong = bayar penuh sisa tagihan.
type SubmitPaymentRequest struct {
	Partial  bool             `json:"partial"`
	Amount   *decimal.Decimal `json:"amount"`
	ProofRef string           `json:"proof_ref" validate:"required,max=2000"`
	Method   string           `json:"method" validate:"omitempty,oneof=bank_transfer cash qris other"`
}

func (r *SubmitPaymentRequest) Normalize() {
	r.ProofRef = strings.TrimSpace(r.ProofRef)
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = string(model.PaymentMethodBankTransfer)
	}
}

// approve=false wajib menyertakan reason_code (dicek di service).
type VerifyPaymentRequest struct {
	Approve    *bool  `json:"approve" validate:"required"`
	ReasonCode string `json:"reason_code" validate:"max=120"`
	ReasonNote string `json:"reason_note" validate:"max=1000"`
}

func (r *VerifyPaymentRequest) Normalize() {
	r.ReasonCode = strings.TrimSpace(r.ReasonCode)
	r.ReasonNote = strings.TrimSpace(r.ReasonNote)
}

type RevokePaymentRequest struct {
	ReasonCode string `json:"reason_code" validate:"required,max=120"`
	ReasonNote string `json:"reason_note" validate:"max=1000"`
}

func (r *RevokePaymentRequest) Normalize() {
	r.ReasonCode = strings.TrimSpace(r.ReasonCode)
	r.ReasonNote = strings.TrimSpace(r.ReasonNote)
}

// Query filter untuk daftar status per tagihan.
type PaymentStatusListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=unpaid awaiting_verification paid"`
	Room   string `query:"room" validate:"omitempty,max=60"`
	Level  string `query:"level" validate:"omitempty,max=30"`
}

func (q *PaymentStatusListQuery) ToFilter() repository.StatusListFilter {
	var f repository.StatusListFilter
	if s := strings.TrimSpace(q.Status); s != "" {
		st := model.PaymentStatusState(s)
		f.Status = &st
	}
	if r := strings.TrimSpace(q.Room); r != "" {
		f.Room = &r
	}
	if l := strings.TrimSpace(q.Level); l != "" {
		f.Level = &l
	}
	return f
}
