package service

import (
	"context"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	billmodel "pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/payments/model"
	"pesantrenku_backend/internals/features/finance/payments/repository"
	studentrepo "pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/logger"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentStatusSettler is implemented by the billing service.
type PaymentStatusSettler interface {
	GetPaymentStatus(ctx context.Context, schoolID uuid.UUID, id string) (*billmodel.PaymentStatusModel, error)
	SettleGatewayPayment(ctx context.Context, id, orderID string, meta datatypes.JSON) (*billmodel.PaymentStatusModel, bool, error)
}

type CheckoutService struct {
	db        database.IClient
	checkouts *repository.CheckoutRepository
	students  *studentrepo.StudentRepository
	billing   PaymentStatusSettler
	snap      SnapGateway
	serverKey string
	log       *logger.Logger
	now       func() time.Time
}

func NewCheckoutService(
	db database.IClient,
	checkouts *repository.CheckoutRepository,
	students *studentrepo.StudentRepository,
	billing PaymentStatusSettler,
	snap SnapGateway,
	serverKey string,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:        db,
		checkouts: checkouts,
		students:  students,
		billing:   billing,
		snap:      snap,
		serverKey: serverKey,
		log:       log.Named("checkout"),
		now:       time.Now,
	}
}

/* =========================================================
   CHECKOUT (wali santri)
========================================================= */

// CreateCheckout opens a Snap transaction for the remaining amount of a status.
func (s *CheckoutService) CreateCheckout(ctx context.Context, schoolID uuid.UUID, paymentStatusID string) (*model.GatewayCheckoutModel, error) {
	if s.snap == nil {
		return nil, ierr.NewError("midtrans is not configured").
			WithHint("Pembayaran online belum tersedia").
			Mark(ierr.ErrInvalidOperation)
	}

	ps, err := s.billing.GetPaymentStatus(ctx, schoolID, paymentStatusID)
	if err != nil {
		return nil, err
	}
	switch ps.PaymentStatusStatus {
	case billmodel.PaymentStatusPaid:
		return nil, ierr.NewError("payment status already paid").
			WithHint("Tagihan sudah lunas").
			Mark(ierr.ErrInvalidOperation)
	case billmodel.PaymentStatusAwaitingVerification:
		return nil, ierr.NewError("payment status awaiting verification").
			WithHint("Bukti pembayaran sedang diverifikasi").
			Mark(ierr.ErrInvalidOperation)
	}

	// Midtrans IDR tanpa desimal
	gross := ps.Remaining().Ceil()
	if !gross.IsPositive() {
		return nil, ierr.NewError("nothing left to pay").
			WithHint("Tidak ada sisa tagihan").
			Mark(ierr.ErrInvalidOperation)
	}

	st, err := s.students.Get(ctx, schoolID, ps.PaymentStatusStudentID)
	if err != nil {
		return nil, err
	}

	orderID := GenOrderID("PSK", s.now())
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross.IntPart(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: defaultString(deref(st.SchoolStudentGuardianName), st.SchoolStudentName),
			Email: deref(st.SchoolStudentGuardianEmail),
			Phone: deref(st.SchoolStudentGuardianPhone),
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       truncate(ps.PaymentStatusInvoiceID.String(), 50),
				Price:    gross.IntPart(),
				Qty:      1,
				Name:     truncate(ps.PaymentStatusInvoiceTitleSnapshot, 50),
				Category: "Tagihan Santri",
			},
		},
		CustomField1: truncate(ps.PaymentStatusStudentNameSnapshot, 40),
	}

	resp, err := s.snap.CreateTransaction(req)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Gagal membuat transaksi pembayaran").
			WithReportableDetails(map[string]any{"order_id": orderID}).
			Mark(ierr.ErrHTTPClient)
	}

	co := &model.GatewayCheckoutModel{
		GatewayCheckoutOrderID:         orderID,
		GatewayCheckoutPaymentStatusID: ps.PaymentStatusID,
		GatewayCheckoutSchoolID:        schoolID,
		GatewayCheckoutStudentID:       ps.PaymentStatusStudentID,
		GatewayCheckoutAmount:          gross,
		GatewayCheckoutSnapToken:       resp.Token,
		GatewayCheckoutRedirectURL:     resp.RedirectURL,
	}
	if err := s.checkouts.Create(ctx, co); err != nil {
		return nil, err
	}

	s.log.Infow("checkout created",
		"order_id", orderID,
		"payment_status_id", ps.PaymentStatusID,
		"amount", gross.String(),
	)
	return co, nil
}

/* =========================================================
   WEBHOOK
========================================================= */

// Notification is the subset of a Midtrans HTTP notification we act on.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	SettlementTime    string `json:"settlement_time"`
}

// ParseNotification decodes a raw webhook body.
func ParseNotification(raw []byte) (Notification, error) {
	var n Notification
	if err := sonic.Unmarshal(raw, &n); err != nil {
		return n, ierr.WithError(err).WithHint("Payload notifikasi tidak valid").Mark(ierr.ErrValidation)
	}
	if n.OrderID == "" {
		return n, ierr.NewError("order_id is empty").WithHint("order_id wajib diisi").Mark(ierr.ErrValidation)
	}
	return n, nil
}

// HandleNotification verifies, logs and applies one notification. Repeated
// notifications for a settled order are acknowledged without side effects.
func (s *CheckoutService) HandleNotification(ctx context.Context, raw []byte) (model.GatewayEventStatus, error) {
	n, err := ParseNotification(raw)
	if err != nil {
		return "", err
	}
	if !VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.serverKey, n.SignatureKey) {
		s.log.Warnw("midtrans signature mismatch", "order_id", n.OrderID)
		return "", ierr.NewError("invalid signature").
			WithHint("Signature tidak valid").
			Mark(ierr.ErrPermissionDenied)
	}

	ev := &model.PaymentGatewayEventModel{
		GatewayEventProvider:    model.GatewayProviderMidtrans,
		GatewayEventType:        strPtr(n.TransactionStatus),
		GatewayEventExternalID:  strPtr(n.OrderID),
		GatewayEventExternalRef: strPtr(n.TransactionID),
		GatewayEventPayload:     datatypes.JSON(raw),
		GatewayEventSignature:   strPtr(n.SignatureKey),
	}
	// log dulu di luar transaksi: tetap tersimpan walau settlement gagal
	if err := s.checkouts.LogEvent(ctx, ev); err != nil {
		return "", err
	}

	result, err := s.applyNotification(ctx, n, raw, ev)
	if err != nil {
		_ = s.checkouts.MarkEvent(ctx, ev, model.GatewayEventStatusFailed, err.Error())
		return "", err
	}
	if err := s.checkouts.MarkEvent(ctx, ev, result, ""); err != nil {
		s.log.Warnw("failed to mark gateway event", "event_id", ev.GatewayEventID, "error", err)
	}
	return result, nil
}

func (s *CheckoutService) applyNotification(ctx context.Context, n Notification, raw []byte, ev *model.PaymentGatewayEventModel) (model.GatewayEventStatus, error) {
	result := model.GatewayEventStatusProcessed

	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		co, err := s.checkouts.GetForUpdate(ctx, n.OrderID)
		if err != nil {
			if ierr.IsNotFound(err) {
				// order bukan milik kita (atau sudah dihapus): ack saja
				result = model.GatewayEventStatusIgnored
				return nil
			}
			return err
		}
		ev.GatewayEventSchoolID = &co.GatewayCheckoutSchoolID
		ev.GatewayEventPaymentStatusID = &co.GatewayCheckoutPaymentStatusID

		if co.GatewayCheckoutStatus.Final() {
			result = model.GatewayEventStatusIgnored
			return nil
		}

		next := MapMidtransStatus(n.TransactionStatus, n.FraudStatus)
		if next == model.CheckoutStatusPaid {
			gross, perr := decimal.NewFromString(n.GrossAmount)
			if perr != nil || !gross.Equal(co.GatewayCheckoutAmount) {
				return ierr.NewError("gross amount mismatch").
					WithHint("Nominal notifikasi tidak sesuai").
					WithReportableDetails(map[string]any{
						"order_id": n.OrderID,
						"expected": co.GatewayCheckoutAmount.String(),
						"got":      n.GrossAmount,
					}).
					Mark(ierr.ErrValidation)
			}
			_, applied, err := s.billing.SettleGatewayPayment(ctx, co.GatewayCheckoutPaymentStatusID, co.GatewayCheckoutOrderID, datatypes.JSON(raw))
			if err != nil {
				return err
			}
			now := s.now()
			co.GatewayCheckoutPaidAt = &now
			if !applied {
				// uang masuk dua kali: tandai untuk refund, status tagihan tidak berubah
				next = model.CheckoutStatusRefundRequired
				result = model.GatewayEventStatusRefundRequired
				s.log.Warnw("midtrans settlement needs refund",
					"order_id", n.OrderID,
					"payment_status_id", co.GatewayCheckoutPaymentStatusID,
					"gross_amount", n.GrossAmount,
				)
			}
		}

		co.GatewayCheckoutStatus = next
		co.GatewayCheckoutTransactionID = strPtr(n.TransactionID)
		co.GatewayCheckoutPaymentType = strPtr(n.PaymentType)
		co.GatewayCheckoutLastPayload = datatypes.JSON(raw)
		if err := s.checkouts.Save(ctx, co); err != nil {
			return err
		}

		s.log.Infow("midtrans notification applied",
			"order_id", n.OrderID,
			"transaction_status", n.TransactionStatus,
			"checkout_status", next,
		)
		return nil
	})
	return result, err
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
