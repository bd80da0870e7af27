package database

import (
	ierr "pesantrenku_backend/internals/errors"
	billmodel "pesantrenku_backend/internals/features/finance/billings/model"
	paymodel "pesantrenku_backend/internals/features/finance/payments/model"
	notifmodel "pesantrenku_backend/internals/features/home/notifications/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/logger"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&studentmodel.SchoolStudentModel{},
		&studentmodel.UnitCounterModel{},
		&billmodel.InvoiceModel{},
		&billmodel.PaymentStatusModel{},
		&billmodel.PaymentStatusEventModel{},
		&paymodel.GatewayCheckoutModel{},
		&paymodel.PaymentGatewayEventModel{},
		&notifmodel.NotificationModel{},
	}
}

// AutoMigrate creates/extends the schema. Columns are never dropped.
func AutoMigrate(db *gorm.DB, log *logger.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return ierr.WithError(err).WithHint("migrasi skema gagal").Mark(ierr.ErrDatabase)
	}
	log.Infow("✅ schema migrated", "tables", len(Models()))
	return nil
}
