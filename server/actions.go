package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/talentwire/points-service/ledger"
	"github.com/talentwire/points-service/models"
)

type conversationRequest struct {
	TenantID    string `json:"tenant_id" binding:"required"`
	CandidateID string `json:"candidate_id" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
}

// startConversation charges one AI conversation turn and opens the session in
// the same transaction. A duplicate open session aborts the charge; the
// existing session is returned instead, unbilled.
func (s *Server) startConversation(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session := &models.ConversationSession{
		TenantID:    req.TenantID,
		CandidateID: req.CandidateID,
		Kind:        req.Kind,
	}

	result := s.ledger.Consume(c.Request.Context(), ledger.ConsumeParams{
		TenantID:    req.TenantID,
		Action:      models.ActionAIConversation,
		Description: "conversation started",
		SideEffects: func(tx *gorm.DB) (any, error) {
			if err := models.CreateConversationSession(tx, session); err != nil {
				return nil, err
			}
			return session, nil
		},
	})

	if result.Failure() {
		if result.ErrorCode() == "duplicate_session" {
			existing := s.ledger.Store().FindOpenSession(req.TenantID, req.CandidateID, req.Kind)
			if existing.Success() {
				c.JSON(http.StatusOK, gin.H{
					"session_id": existing.Value().ID,
					"reused":     true,
				})
				return
			}
		}
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":  session.ID,
		"reused":      false,
		"new_balance": result.Value().NewBalance,
	})
}

type closeConversationRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// closeConversation is free: closing never charges, only the open does.
func (s *Server) closeConversation(c *gin.Context) {
	var req closeConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sessionID := c.Param("id")

	result := s.ledger.RunFree(c.Request.Context(), req.TenantID, func(tx *gorm.DB) (any, error) {
		return nil, models.CloseConversationSession(tx, sessionID)
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": "closed"})
}

type messageRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	InterestID string `json:"interest_id" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

// sendMessage re-validates the interest eligibility inside the charge
// transaction: the deduction, the eligibility check and the insert are
// all-or-nothing.
func (s *Server) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	message := &models.Message{
		TenantID:   req.TenantID,
		InterestID: req.InterestID,
		Body:       req.Body,
	}

	result := s.ledger.Consume(c.Request.Context(), ledger.ConsumeParams{
		TenantID:    req.TenantID,
		Action:      models.ActionMessageSend,
		RelatedID:   &req.InterestID,
		Description: "message sent",
		SideEffects: func(tx *gorm.DB) (any, error) {
			if err := models.TouchApprovedInterest(tx, req.InterestID, time.Now().UTC()); err != nil {
				return nil, err
			}
			if err := models.CreateMessage(tx, message); err != nil {
				return nil, err
			}
			return message, nil
		},
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message_id":  message.ID,
		"new_balance": result.Value().NewBalance,
	})
}

type disclosureRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	TokenID  string `json:"token_id" binding:"required"`
}

// discloseContact consumes the one-time token and the points atomically. A
// spent token aborts the charge with a conflict.
func (s *Server) discloseContact(c *gin.Context) {
	var req disclosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result := s.ledger.Consume(c.Request.Context(), ledger.ConsumeParams{
		TenantID:    req.TenantID,
		Action:      models.ActionContactDisclosure,
		RelatedID:   &req.TokenID,
		Description: "contact details disclosed",
		SideEffects: func(tx *gorm.DB) (any, error) {
			if err := models.ConsumeToken(tx, req.TokenID); err != nil {
				return nil, err
			}
			return nil, models.CreateNotification(tx, &models.Notification{
				Kind:      models.NotificationContactDisclosed,
				SubjectID: req.TokenID,
			})
		},
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_balance": result.Value().NewBalance})
}
