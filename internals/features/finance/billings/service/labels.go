package service

import (
	"context"

	"pesantrenku_backend/internals/features/finance/billings/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
)

// labelFor: Paid iff nothing outstanding; otherwise AwaitingVerification when
// any proof is pending, else Unpaid.
func labelFor(outstanding int, awaiting int64) studentmodel.PaymentLabel {
	switch {
	case outstanding <= 0:
		return studentmodel.PaymentLabelPaid
	case awaiting > 0:
		return studentmodel.PaymentLabelAwaitingVerification
	default:
		return studentmodel.PaymentLabelUnpaid
	}
}

// settleStudent applies an outstanding delta to a locked student and rewrites the label.
// Deleted students still settle.
func (s *BillingService) settleStudent(ctx context.Context, studentID uuid.UUID, delta int) (*studentmodel.SchoolStudentModel, error) {
	st, err := s.students.GetForSettle(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.students.AdjustOutstanding(ctx, studentID, delta); err != nil {
		return nil, err
	}
	next := st.SchoolStudentOutstandingCount + delta
	if next < 0 {
		next = 0
	}
	st.SchoolStudentOutstandingCount = next

	awaiting, err := s.statuses.CountByStudentStatus(ctx, studentID, model.PaymentStatusAwaitingVerification)
	if err != nil {
		return nil, err
	}
	label := labelFor(next, awaiting)
	if label != st.SchoolStudentPaymentLabel {
		if err := s.students.SetPaymentLabel(ctx, studentID, label); err != nil {
			return nil, err
		}
		st.SchoolStudentPaymentLabel = label
	}
	return st, nil
}
