package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talentwire/points-service/utils"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription holds one point balance per tenant. The balance is only ever
// mutated while the row is locked, see LockSubscription.
type Subscription struct {
	ID             string `gorm:"primaryKey"`
	TenantID       string
	PointBalance   int64
	PointsIncluded int64
	Status         SubscriptionStatus
	PlanType       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LockSubscription acquires the tenant row lock (SELECT ... FOR UPDATE) for
// the duration of the enclosing transaction. Every balance mutation must go
// through a subscription returned by this function.
func LockSubscription(tx *gorm.DB, tenantID string) (*Subscription, error) {
	var sub Subscription

	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}

	if sub.Status != SubscriptionActive {
		return nil, SubscriptionInactiveError{Status: sub.Status}
	}

	return &sub, nil
}

// FetchSubscription is an unlocked read, only suitable for advisory checks.
func (store *Store) FetchSubscription(tenantID string) utils.Result[*Subscription] {
	var sub Subscription

	err := store.db.Connection.
		Where("tenant_id = ?", tenantID).
		First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.BusinessFailure[*Subscription](ErrNoSubscription, "no_subscription", "Tenant has no billing record")
	}
	if err != nil {
		return utils.FailedResult[*Subscription](err)
	}

	return utils.SuccessResult(&sub)
}

func (store *Store) ActiveTenantIDs() utils.Result[[]string] {
	var tenantIDs []string

	err := store.db.Connection.
		Model(&Subscription{}).
		Where("status = ?", SubscriptionActive).
		Pluck("tenant_id", &tenantIDs).Error

	if err != nil {
		return utils.FailedResult[[]string](err)
	}

	return utils.SuccessResult(tenantIDs)
}
