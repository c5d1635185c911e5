package models

import (
	"time"

	"gorm.io/gorm"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipDisabled MembershipStatus = "disabled"
)

const membershipsTable = "memberships"

type Membership struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string
	UserID    string
	Status    MembershipStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisableMembership is safe against a user action racing the offboarding
// job: only one of them observes the active status.
func DisableMembership(tx *gorm.DB, membershipID string) error {
	return GuardTransition(tx, membershipsTable, membershipID,
		[]string{string(MembershipActive)}, string(MembershipDisabled), nil)
}
