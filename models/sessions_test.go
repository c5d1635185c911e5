package models

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const openSessionQuery = `SELECT .* FROM "conversation_sessions" WHERE tenant_id = .*candidate_id = .*kind = .*status = `

func TestCreateConversationSession(t *testing.T) {
	t.Run("should insert when no open session exists", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(openSessionQuery).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectExec(`INSERT INTO "conversation_sessions"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		session := &ConversationSession{TenantID: "tenant1", CandidateID: "cand1", Kind: "screening"}
		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			return CreateConversationSession(tx, session)
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, SessionOpen, session.Status)
	})

	t.Run("should raise DuplicateSessionError when an open session exists", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "candidate_id", "kind", "status", "created_at", "updated_at"}).
			AddRow("sess1", "tenant1", "cand1", "screening", string(SessionOpen), now, now)

		mock.ExpectBegin()
		mock.ExpectQuery(openSessionQuery).
			WillReturnRows(rows)
		mock.ExpectRollback()

		session := &ConversationSession{TenantID: "tenant1", CandidateID: "cand1", Kind: "screening"}
		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			return CreateConversationSession(tx, session)
		})

		var duplicate DuplicateSessionError
		assert.True(t, errors.As(err, &duplicate))
		assert.Equal(t, "sess1", duplicate.SessionID)
		assert.Equal(t, "duplicate_session", ErrorCode(err))
	})
}

func TestFindOpenSession(t *testing.T) {
	t.Run("should return the open session", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "candidate_id", "kind", "status", "created_at", "updated_at"}).
			AddRow("sess1", "tenant1", "cand1", "screening", string(SessionOpen), now, now)

		mock.ExpectQuery(openSessionQuery).
			WillReturnRows(rows)

		result := store.FindOpenSession("tenant1", "cand1", "screening")

		assert.True(t, result.Success())
		assert.Equal(t, "sess1", result.Value().ID)
	})
}

func TestCloseConversationSession(t *testing.T) {
	t.Run("should close an open session exactly once", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "conversation_sessions" SET .* WHERE id = .* AND status IN `).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			return CloseConversationSession(tx, "sess1")
		})

		assert.NoError(t, err)
	})

	t.Run("should reject closing an already closed session", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "conversation_sessions" SET .* WHERE id = .* AND status IN `).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			return CloseConversationSession(tx, "sess1")
		})

		assert.ErrorIs(t, err, ErrConflict)
	})
}
