package repository

import (
	"context"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/home/notifications/model"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db database.IClient
}

func NewNotificationRepository(db database.IClient) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, m *model.NotificationModel) error {
	if err := r.db.DB(ctx).Create(m).Error; err != nil {
		return ierr.WithError(err).WithHint("Gagal menyimpan notifikasi").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *NotificationRepository) ListByStudent(ctx context.Context, schoolID, studentID uuid.UUID, limit, offset int) ([]model.NotificationModel, int64, error) {
	q := r.db.DB(ctx).Model(&model.NotificationModel{}).
		Where("notification_school_id = ? AND notification_student_id = ?", schoolID, studentID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal menghitung notifikasi").Mark(ierr.ErrDatabase)
	}
	var rows []model.NotificationModel
	if err := q.Order("notification_created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, ierr.WithError(err).WithHint("Gagal mengambil notifikasi").Mark(ierr.ErrDatabase)
	}
	return rows, total, nil
}

// MarkRead is idempotent; NotFound when the id is not in the school.
func (r *NotificationRepository) MarkRead(ctx context.Context, schoolID, id uuid.UUID, at time.Time) error {
	res := r.db.DB(ctx).Model(&model.NotificationModel{}).
		Where("notification_id = ? AND notification_school_id = ?", id, schoolID).
		Where("notification_read_at IS NULL").
		UpdateColumn("notification_read_at", at)
	if res.Error != nil {
		return ierr.WithError(res.Error).WithHint("Gagal memperbarui notifikasi").Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.DB(ctx).Model(&model.NotificationModel{}).
			Where("notification_id = ? AND notification_school_id = ?", id, schoolID).
			Count(&n).Error; err != nil {
			return ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		if n == 0 {
			return ierr.NewError("notification not found").
				WithHint("Notifikasi tidak ditemukan").
				Mark(ierr.ErrNotFound)
		}
	}
	return nil
}
