package models

import (
	"time"

	"gorm.io/gorm"
)

// Transition is the optimistic compare-and-swap used by every versioned
// entity: one conditional UPDATE that both checks and applies the status
// change. A zero affected count means another request won the race; the
// caller must surface ErrConflict instead of retrying blindly.
func Transition(tx *gorm.DB, table string, entityID string, fromStatuses []string, toStatus string, extra map[string]any) (int64, error) {
	updates := map[string]any{
		"status":     toStatus,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	result := tx.Table(table).
		Where("id = ? AND status IN ?", entityID, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// GuardTransition wraps Transition for the common single-winner case,
// mapping a lost race to ErrConflict.
func GuardTransition(tx *gorm.DB, table string, entityID string, fromStatuses []string, toStatus string, extra map[string]any) error {
	affected, err := Transition(tx, table, entityID, fromStatuses, toStatus, extra)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}

	return nil
}
