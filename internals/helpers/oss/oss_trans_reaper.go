package helper

import (
	"context"
	"time"

	"pesantrenku_backend/internals/configs"
	"pesantrenku_backend/internals/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"gorm.io/gorm"
)

// Tabel soft-delete yang di-hard-delete setelah retensi.
var reaperTargets = []struct{ Table, Col string }{
	{Table: "invoices", Col: "invoice_deleted_at"},
	{Table: "school_students", Col: "school_student_deleted_at"},
}

// Reaper membersihkan baris soft-delete lama dan (opsional) bukti lama di OSS.
type Reaper struct {
	db    *gorm.DB
	store *OSSService
	cfg   configs.ReaperConfig
	log   *logger.Logger
	now   func() time.Time
}

// store boleh nil (OSS tidak dikonfigurasi).
func NewReaper(db *gorm.DB, store *OSSService, cfg configs.ReaperConfig, log *logger.Logger) *Reaper {
	return &Reaper{db: db, store: store, cfg: cfg, log: log.Named("reaper"), now: time.Now}
}

// Run is a scheduler job.
func (r *Reaper) Run(ctx context.Context) error {
	if r.store != nil && r.cfg.ProofRetention > 0 {
		if err := r.reapProofs(ctx); err != nil {
			r.log.Warnw("oss reaper failed", "err", err)
		}
	}
	_, err := r.ReapRows(ctx)
	return err
}

// ReapRows hard-deletes soft-deleted rows older than the retention.
func (r *Reaper) ReapRows(ctx context.Context) (int64, error) {
	if r.cfg.Retention <= 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.cfg.Retention)

	var total int64
	for _, t := range reaperTargets {
		where := t.Col + " IS NOT NULL AND " + t.Col + " < ?"
		if r.cfg.DryRun {
			var n int64
			if err := r.db.WithContext(ctx).Table(t.Table).Where(where, cutoff).Count(&n).Error; err != nil {
				return total, err
			}
			r.log.Infow("dry-run, would hard-delete", "table", t.Table, "rows", n)
			continue
		}
		res := r.db.WithContext(ctx).Exec(`DELETE FROM `+t.Table+` WHERE `+where, cutoff)
		if res.Error != nil {
			r.log.Errorw("hard-delete failed", "table", t.Table, "err", res.Error)
			return total, res.Error
		}
		if res.RowsAffected > 0 {
			r.log.Infow("hard-deleted", "table", t.Table, "rows", res.RowsAffected, "cutoff", cutoff.Format(time.RFC3339))
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (r *Reaper) reapProofs(ctx context.Context) error {
	threshold := r.now().Add(-r.cfg.ProofRetention)
	marker := oss.Marker("")
	var keys []string
	scanned := 0

	for {
		lor, err := r.store.Bucket.ListObjects(oss.Prefix(r.store.Prefix+"/"), marker, oss.MaxKeys(1000), oss.WithContext(ctx))
		if err != nil {
			return err
		}
		for _, obj := range lor.Objects {
			scanned++
			if obj.Key != "" && obj.LastModified.Before(threshold) {
				keys = append(keys, obj.Key)
			}
		}
		if !lor.IsTruncated {
			break
		}
		marker = oss.Marker(lor.NextMarker)
	}

	if len(keys) == 0 || r.cfg.DryRun {
		r.log.Infow("oss reaper scan done", "scanned", scanned, "expired", len(keys), "dry_run", r.cfg.DryRun)
		return nil
	}
	for i := 0; i < len(keys); i += 1000 {
		end := i + 1000
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.store.DeleteObjects(ctx, keys[i:end]); err != nil {
			r.log.Warnw("delete batch failed", "from", i, "to", end, "err", err)
		}
	}
	r.log.Infow("oss reaper deleted", "deleted", len(keys), "scanned", scanned)
	return nil
}
