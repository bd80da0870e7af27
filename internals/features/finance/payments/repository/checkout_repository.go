package repository

import (
	"context"
	"errors"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/payments/model"

	"gorm.io/gorm"
)

type CheckoutRepository struct {
	db database.IClient
}

func NewCheckoutRepository(db database.IClient) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

func (r *CheckoutRepository) Create(ctx context.Context, m *model.GatewayCheckoutModel) error {
	if err := r.db.DB(ctx).Create(m).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ierr.WithError(err).WithHint("Order sudah ada").Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("Gagal menyimpan checkout").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *CheckoutRepository) GetForUpdate(ctx context.Context, orderID string) (*model.GatewayCheckoutModel, error) {
	var m model.GatewayCheckoutModel
	err := database.ForUpdate(r.db.DB(ctx)).
		Where("gateway_checkout_order_id = ?", orderID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ierr.WithError(err).
			WithHint("Order tidak ditemukan").
			WithReportableDetails(map[string]any{"order_id": orderID}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

// Save writes the mutable columns of a checkout.
func (r *CheckoutRepository) Save(ctx context.Context, m *model.GatewayCheckoutModel) error {
	m.GatewayCheckoutUpdatedAt = time.Now()
	err := r.db.DB(ctx).Model(&model.GatewayCheckoutModel{}).
		Where("gateway_checkout_order_id = ?", m.GatewayCheckoutOrderID).
		Select(
			"gateway_checkout_status",
			"gateway_checkout_transaction_id",
			"gateway_checkout_payment_type",
			"gateway_checkout_last_payload",
			"gateway_checkout_paid_at",
			"gateway_checkout_updated_at",
		).
		Updates(m).Error
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal memperbarui checkout").Mark(ierr.ErrDatabase)
	}
	return nil
}

// LogEvent stores a raw gateway notification; it must survive a failed settlement.
func (r *CheckoutRepository) LogEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	if err := r.db.DB(ctx).Create(ev).Error; err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *CheckoutRepository) MarkEvent(ctx context.Context, ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, errMsg string) error {
	now := time.Now()
	updates := map[string]any{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if errMsg != "" {
		updates["gateway_event_error"] = errMsg
	}
	if ev.GatewayEventSchoolID != nil {
		updates["gateway_event_school_id"] = *ev.GatewayEventSchoolID
	}
	if ev.GatewayEventPaymentStatusID != nil {
		updates["gateway_event_payment_status_id"] = *ev.GatewayEventPaymentStatusID
	}
	err := r.db.DB(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		UpdateColumns(updates).Error
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	ev.GatewayEventStatus = status
	ev.GatewayEventProcessedAt = &now
	return nil
}

func (r *CheckoutRepository) ListEvents(ctx context.Context, orderID string) ([]model.PaymentGatewayEventModel, error) {
	var rows []model.PaymentGatewayEventModel
	err := r.db.DB(ctx).
		Where("gateway_event_external_id = ?", orderID).
		Order("gateway_event_received_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return rows, nil
}
