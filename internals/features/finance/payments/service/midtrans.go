package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"pesantrenku_backend/internals/configs"
	"pesantrenku_backend/internals/features/finance/payments/model"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/oklog/ulid/v2"
)

/* =========================================================
   Midtrans Client
========================================================= */

// SnapGateway is the part of the Snap API the checkout flow needs.
type SnapGateway interface {
	CreateTransaction(req *snap.Request) (*snap.Response, error)
}

type snapGateway struct {
	client snap.Client
}

// NewSnapGateway returns nil when no server key is configured.
func NewSnapGateway(cfg configs.MidtransConfig) SnapGateway {
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil
	}
	g := &snapGateway{}
	if cfg.IsProduction {
		g.client.New(cfg.ServerKey, midtrans.Production)
	} else {
		g.client.New(cfg.ServerKey, midtrans.Sandbox)
	}
	return g
}

func (g *snapGateway) CreateTransaction(req *snap.Request) (*snap.Response, error) {
	// *midtrans.Error nil harus jadi error nil, bukan interface ber-isi nil
	resp, merr := g.client.CreateTransaction(req)
	if merr != nil {
		return nil, merr
	}
	return resp, nil
}

/* =========================================================
   Status mapping & signature
========================================================= */

// MapMidtransStatus maps transaction_status (+fraud_status) to a checkout status.
func MapMidtransStatus(transactionStatus, fraudStatus string) model.CheckoutStatus {
	ts := strings.ToLower(strings.TrimSpace(transactionStatus))
	fs := strings.ToLower(strings.TrimSpace(fraudStatus))

	switch ts {
	case "capture":
		if fs == "" || fs == "accept" {
			return model.CheckoutStatusPaid
		}
		return model.CheckoutStatusPending // challenge: tunggu review Midtrans
	case "settlement":
		return model.CheckoutStatusPaid
	case "pending":
		return model.CheckoutStatusPending
	case "deny", "failure":
		return model.CheckoutStatusFailed
	case "cancel":
		return model.CheckoutStatusCanceled
	case "expire":
		return model.CheckoutStatusExpired
	case "refund", "partial_refund", "chargeback", "partial_chargeback":
		return model.CheckoutStatusRefunded
	}
	return model.CheckoutStatusPending
}

// Signature = SHA512(order_id + status_code + gross_amount + server_key), hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(orderID, statusCode, grossAmount, serverKey, got string) bool {
	if serverKey == "" || got == "" {
		return false
	}
	want := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(got)))) == 1
}

// GenOrderID: PREFIX-<ulid>, maksimal 50 karakter (batas order_id Midtrans).
func GenOrderID(prefix string, at time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
	if prefix == "" {
		return id
	}
	return truncate(strings.ToUpper(prefix)+"-"+id, 50)
}

/* =========================================================
   Utils
========================================================= */

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
