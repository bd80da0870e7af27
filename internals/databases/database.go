package database

import (
	"context"
	"time"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDB opens the postgres pool. DSN harus sudah termasuk sslmode dan statement_timeout.
func ConnectDB(cfg configs.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	log.Info("🔌 Koneksi ke PostgreSQL...")

	if cfg.DSN == "" {
		return nil, ierr.NewError("DATABASE_URL is empty").
			WithHint("DATABASE_URL belum diset").
			Mark(ierr.ErrSystem)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true, // cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(log),
	})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("gagal konek DB").Mark(ierr.ErrDatabase)
	}

	TunePool(db, cfg)
	log.Info("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB, cfg configs.DatabaseConfig) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.L.Warnw("pool tune err", "error", err)
		return
	}
	maxOpen, maxIdle := cfg.MaxOpen, cfg.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 20
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// WarmUp pings the pool in the background so the first request does not pay the dial cost.
func WarmUp(db *gorm.DB, log *logger.Logger) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := Ping(ctx, db); err != nil {
			log.Warnw("warm-up ping err", "error", err)
		}
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
