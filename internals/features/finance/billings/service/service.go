package service

import (
	"context"
	"time"

	"pesantrenku_backend/internals/configs"
	database "pesantrenku_backend/internals/databases"
	"pesantrenku_backend/internals/features/finance/billings/repository"
	notifmodel "pesantrenku_backend/internals/features/home/notifications/model"
	studentrepo "pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/logger"

	"github.com/google/uuid"
)

// GuardianNotifier delivers best-effort messages. Notify must not block.
type GuardianNotifier interface {
	Notify(ctx context.Context, n notifmodel.GuardianNotice)
}

// ActiveCounter gives the informational unit size for broadcast invoices.
type ActiveCounter interface {
	ActiveStudents(ctx context.Context, schoolID uuid.UUID, unitCode string) (int, error)
}

// BillingService is the only writer of invoices, payment statuses and the
// students' finance columns.
type BillingService struct {
	db       database.IClient
	invoices *repository.InvoiceRepository
	statuses *repository.PaymentStatusRepository
	students *studentrepo.StudentRepository
	counter  ActiveCounter
	notifier GuardianNotifier
	cfg      configs.BillingConfig
	log      *logger.Logger
	now      func() time.Time
}

type Deps struct {
	DB       database.IClient
	Invoices *repository.InvoiceRepository
	Statuses *repository.PaymentStatusRepository
	Students *studentrepo.StudentRepository
	Counter  ActiveCounter
	Notifier GuardianNotifier
	Config   configs.BillingConfig
	Logger   *logger.Logger
}

func NewBillingService(d Deps) *BillingService {
	if d.Config.IssuanceBatchSize <= 0 {
		d.Config.IssuanceBatchSize = 500
	}
	return &BillingService{
		db:       d.DB,
		invoices: d.Invoices,
		statuses: d.Statuses,
		students: d.Students,
		counter:  d.Counter,
		notifier: d.Notifier,
		cfg:      d.Config,
		log:      d.Logger.Named("billing"),
		now:      time.Now,
	}
}

func (s *BillingService) notify(ctx context.Context, n *notifmodel.GuardianNotice) {
	if n == nil || s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, *n)
}
