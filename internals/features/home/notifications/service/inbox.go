package service

import (
	"context"

	"pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/features/home/notifications/repository"

	"gorm.io/datatypes"
)

// InboxChannel keeps a copy of every notice in the in-app inbox.
type InboxChannel struct {
	repo *repository.NotificationRepository
}

func NewInboxChannel(repo *repository.NotificationRepository) *InboxChannel {
	return &InboxChannel{repo: repo}
}

func (i *InboxChannel) Name() string { return "inbox" }

func (i *InboxChannel) Enabled(model.GuardianNotice) bool { return true }

func (i *InboxChannel) Send(ctx context.Context, n model.GuardianNotice) error {
	return i.repo.Create(ctx, &model.NotificationModel{
		NotificationSchoolID:    n.SchoolID,
		NotificationStudentID:   n.StudentID,
		NotificationType:        n.Kind,
		NotificationTitle:       n.Title(),
		NotificationDescription: n.Body(),
		NotificationTags:        datatypes.NewJSONSlice([]string{"payment", n.PaymentStatusID}),
	})
}
