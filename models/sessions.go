package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentwire/points-service/utils"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// ConversationSession is a billed AI conversation between a tenant and a
// candidate. Only one open session per (tenant, candidate, kind) may exist.
type ConversationSession struct {
	ID          string `gorm:"primaryKey"`
	TenantID    string
	CandidateID string
	Kind        string
	Status      SessionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateConversationSession re-checks for an existing open session before
// inserting. Finding one raises DuplicateSessionError so the caller can
// abort the charge and reuse the existing session.
func CreateConversationSession(tx *gorm.DB, session *ConversationSession) error {
	var existing ConversationSession

	err := tx.
		Where("tenant_id = ?", session.TenantID).
		Where("candidate_id = ?", session.CandidateID).
		Where("kind = ?", session.Kind).
		Where("status = ?", SessionOpen).
		First(&existing).Error

	if err == nil {
		return DuplicateSessionError{SessionID: existing.ID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.Status = SessionOpen

	return tx.Create(session).Error
}

// FindOpenSession is the re-query path after a duplicate was detected.
func (store *Store) FindOpenSession(tenantID, candidateID, kind string) utils.Result[*ConversationSession] {
	var session ConversationSession

	err := store.db.Connection.
		Where("tenant_id = ?", tenantID).
		Where("candidate_id = ?", candidateID).
		Where("kind = ?", kind).
		Where("status = ?", SessionOpen).
		First(&session).Error

	if err != nil {
		return utils.FailedResult[*ConversationSession](err)
	}

	return utils.SuccessResult(&session)
}

func CloseConversationSession(tx *gorm.DB, sessionID string) error {
	return GuardTransition(tx, "conversation_sessions", sessionID,
		[]string{string(SessionOpen)}, string(SessionClosed), nil)
}
