package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a recruiter message to a candidate, billed per send. Creation
// only happens inside a consume transaction, after the interest eligibility
// was re-validated.
type Message struct {
	ID         string `gorm:"primaryKey"`
	TenantID   string
	InterestID string
	Body       string
	CreatedAt  time.Time
}

func CreateMessage(tx *gorm.DB, message *Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if err := tx.Create(message).Error; err != nil {
		return err
	}

	return CreateNotification(tx, &Notification{
		Kind:      NotificationMessageReceived,
		SubjectID: message.ID,
	})
}
