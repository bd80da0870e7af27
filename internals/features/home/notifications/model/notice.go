package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NoticeKind string

const (
	NoticePaymentApproved NoticeKind = "payment_approved"
	NoticePaymentRejected NoticeKind = "payment_rejected"
	NoticePaymentRevoked  NoticeKind = "payment_revoked"
)

// GuardianNotice is an outbound message about one payment status.
type GuardianNotice struct {
	Kind            NoticeKind
	SchoolID        uuid.UUID
	StudentID       uuid.UUID
	PaymentStatusID string
	StudentName     string
	GuardianName    *string
	GuardianPhone   *string
	GuardianEmail   *string
	InvoiceTitle    string
	Amount          decimal.Decimal
	Reason          string
}

func (n GuardianNotice) Title() string {
	switch n.Kind {
	case NoticePaymentApproved:
		return "Pembayaran diterima"
	case NoticePaymentRejected:
		return "Pembayaran ditolak"
	case NoticePaymentRevoked:
		return "Status lunas dibatalkan"
	}
	return "Informasi pembayaran"
}

func (n GuardianNotice) Body() string {
	greeting := "Assalamu'alaikum"
	if n.GuardianName != nil && *n.GuardianName != "" {
		greeting += " " + *n.GuardianName
	}
	amount := "Rp" + n.Amount.StringFixed(0)

	switch n.Kind {
	case NoticePaymentApproved:
		return fmt.Sprintf("%s, pembayaran %s untuk %s (%s) sudah diverifikasi. Jazakumullahu khairan.",
			greeting, amount, n.InvoiceTitle, n.StudentName)
	case NoticePaymentRejected:
		return fmt.Sprintf("%s, bukti pembayaran %s untuk %s (%s) ditolak. Alasan: %s. Mohon unggah ulang bukti pembayaran.",
			greeting, amount, n.InvoiceTitle, n.StudentName, n.Reason)
	case NoticePaymentRevoked:
		return fmt.Sprintf("%s, status lunas %s (%s) dibatalkan. Alasan: %s.",
			greeting, n.InvoiceTitle, n.StudentName, n.Reason)
	}
	return fmt.Sprintf("%s, ada pembaruan pembayaran %s (%s).", greeting, n.InvoiceTitle, n.StudentName)
}
