package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationInterestApproved NotificationKind = "interest_approved"
	NotificationMessageReceived  NotificationKind = "message_received"
	NotificationContactDisclosed NotificationKind = "contact_disclosed"
)

type Notification struct {
	ID        string `gorm:"primaryKey"`
	Kind      NotificationKind
	SubjectID string
	CreatedAt time.Time
}

func CreateNotification(tx *gorm.DB, notification *Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}

	return tx.Create(notification).Error
}
