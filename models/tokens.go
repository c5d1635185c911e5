package models

import (
	"time"

	"gorm.io/gorm"
)

type TokenStatus string

const (
	TokenPending TokenStatus = "pending"
	TokenUsed    TokenStatus = "used"
)

const oneTimeTokensTable = "one_time_tokens"

// OneTimeToken authorizes a single privileged operation, e.g. disclosing a
// candidate's contact details. Consuming it twice must be impossible.
type OneTimeToken struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string
	Purpose   string
	Status    TokenStatus
	UsedAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ConsumeToken(tx *gorm.DB, tokenID string) error {
	return GuardTransition(tx, oneTimeTokensTable, tokenID,
		[]string{string(TokenPending)}, string(TokenUsed),
		map[string]any{"used_at": time.Now().UTC()})
}
