package service

import (
	"context"

	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/repository"

	"github.com/google/uuid"
)

// GetPaymentHistory lists a student's statuses across invoices with history.
func (s *BillingService) GetPaymentHistory(ctx context.Context, schoolID, studentID uuid.UUID) ([]model.PaymentStatusModel, error) {
	if _, err := s.students.Get(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	return s.statuses.ListByStudent(ctx, schoolID, studentID)
}

func (s *BillingService) GetInvoicePaymentStatuses(ctx context.Context, schoolID, invoiceID uuid.UUID, f repository.StatusListFilter) ([]model.PaymentStatusModel, int64, error) {
	if _, err := s.invoices.Get(ctx, schoolID, invoiceID); err != nil {
		return nil, 0, err
	}
	return s.statuses.ListByInvoice(ctx, invoiceID, f)
}
