package models

import (
	"time"

	"gorm.io/gorm"
)

type InterestStatus string

const (
	InterestInterested InterestStatus = "interested"
	InterestApproved   InterestStatus = "approved"
	InterestDeclined   InterestStatus = "declined"
)

const interestsTable = "interests"

// Interest is a candidate's interest in a tenant's opening. Approving or
// declining it must happen exactly once, even when the recruiter
// double-clicks or two background jobs race.
type Interest struct {
	ID          string `gorm:"primaryKey"`
	TenantID    string
	CandidateID string
	Status      InterestStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ApproveInterest(tx *gorm.DB, interestID string) error {
	err := GuardTransition(tx, interestsTable, interestID,
		[]string{string(InterestInterested)}, string(InterestApproved), nil)
	if err != nil {
		return err
	}

	// The winner creates the notification inside the same transaction.
	return CreateNotification(tx, &Notification{
		Kind:      NotificationInterestApproved,
		SubjectID: interestID,
	})
}

func DeclineInterest(tx *gorm.DB, interestID string) error {
	return GuardTransition(tx, interestsTable, interestID,
		[]string{string(InterestInterested)}, string(InterestDeclined), nil)
}

// TouchApprovedInterest re-validates that an interest is still approved
// while recording messaging activity. The conditional update keeps the check
// and the write atomic: if the interest left the approved status, zero rows
// match and the message must not be sent.
func TouchApprovedInterest(tx *gorm.DB, interestID string, at time.Time) error {
	return GuardTransition(tx, interestsTable, interestID,
		[]string{string(InterestApproved)}, string(InterestApproved),
		map[string]any{"last_messaged_at": at})
}
