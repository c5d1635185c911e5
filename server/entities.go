package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/talentwire/points-service/models"
)

type tenantRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// approveInterest is a zero-cost transition. Exactly one caller wins; a
// concurrent approve or decline gets a conflict.
func (s *Server) approveInterest(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	interestID := c.Param("id")

	result := s.ledger.RunFree(c.Request.Context(), req.TenantID, func(tx *gorm.DB) (any, error) {
		return nil, models.ApproveInterest(tx, interestID)
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interest_id": interestID, "status": string(models.InterestApproved)})
}

func (s *Server) declineInterest(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	interestID := c.Param("id")

	result := s.ledger.RunFree(c.Request.Context(), req.TenantID, func(tx *gorm.DB) (any, error) {
		return nil, models.DeclineInterest(tx, interestID)
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interest_id": interestID, "status": string(models.InterestDeclined)})
}

func (s *Server) disableMembership(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	membershipID := c.Param("id")

	result := s.ledger.RunFree(c.Request.Context(), req.TenantID, func(tx *gorm.DB) (any, error) {
		return nil, models.DisableMembership(tx, membershipID)
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership_id": membershipID, "status": string(models.MembershipDisabled)})
}
