// Package testutil builds the in-memory database and fakes shared by service tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	database "pesantrenku_backend/internals/databases"
	notifmodel "pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/logger"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database migrated with every model.
// One connection only: sqlite has no row locks, so writers are serialized here.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// NewClient wraps NewDB in the transaction-aware client used by repositories.
func NewClient(t testing.TB) (*gorm.DB, *database.Client) {
	db := NewDB(t)
	return db, database.NewClient(db, logger.NewNop())
}

/* =========================================================
   Fakes
========================================================= */

// RecordingNotifier keeps every notice it is handed.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []notifmodel.GuardianNotice
}

func (r *RecordingNotifier) Notify(_ context.Context, n notifmodel.GuardianNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *RecordingNotifier) Notices() []notifmodel.GuardianNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifmodel.GuardianNotice(nil), r.notices...)
}

func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Published is one message captured by FakePublisher.
type Published struct {
	Topic   string
	Payload any
}

type FakePublisher struct {
	mu   sync.Mutex
	msgs []Published
	Err  error
}

func (p *FakePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.msgs = append(p.msgs, Published{Topic: topic, Payload: payload})
	return nil
}

func (p *FakePublisher) Messages() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.msgs...)
}
