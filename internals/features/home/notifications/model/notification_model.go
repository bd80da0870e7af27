package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationModel = kotak masuk wali santri (in-app).
type NotificationModel struct {
	NotificationID          uuid.UUID                   `gorm:"column:notification_id;primaryKey;type:uuid" json:"notification_id"`
	NotificationSchoolID    uuid.UUID                   `gorm:"column:notification_school_id;type:uuid;not null;index" json:"notification_school_id"`
	NotificationStudentID   uuid.UUID                   `gorm:"column:notification_student_id;type:uuid;not null;index" json:"notification_student_id"`
	NotificationType        NoticeKind                  `gorm:"column:notification_type;type:varchar(40);not null" json:"notification_type"`
	NotificationTitle       string                      `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationDescription string                      `gorm:"column:notification_description;type:text" json:"notification_description"`
	NotificationTags        datatypes.JSONSlice[string] `gorm:"column:notification_tags" json:"notification_tags"`
	NotificationReadAt      *time.Time                  `gorm:"column:notification_read_at" json:"notification_read_at,omitempty"`
	NotificationCreatedAt   time.Time                   `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
	NotificationUpdatedAt   time.Time                   `gorm:"column:notification_updated_at;autoUpdateTime" json:"notification_updated_at"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	return nil
}
