package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentwire/points-service/ledger"
	"github.com/talentwire/points-service/models"
)

type consumeRequest struct {
	TenantID    string  `json:"tenant_id" binding:"required"`
	Action      string  `json:"action" binding:"required"`
	RelatedID   *string `json:"related_id"`
	Description string  `json:"description"`
}

// consumePoints is the generic metering endpoint for actions without entity
// side effects, e.g. profile views.
func (s *Server) consumePoints(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result := s.ledger.Consume(c.Request.Context(), ledger.ConsumeParams{
		TenantID:    req.TenantID,
		Action:      models.BillableAction(req.Action),
		RelatedID:   req.RelatedID,
		Description: req.Description,
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	outcome := result.Value()
	c.JSON(http.StatusOK, gin.H{
		"consumed":    outcome.Consumed,
		"new_balance": outcome.NewBalance,
	})
}

type grantRequest struct {
	TenantID    string `json:"tenant_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) grantPoints(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result := s.ledger.Grant(c.Request.Context(), ledger.GrantParams{
		TenantID:    req.TenantID,
		Amount:      req.Amount,
		Type:        models.TransactionType(req.Type),
		Description: req.Description,
	})
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	outcome := result.Value()
	c.JSON(http.StatusOK, gin.H{
		"new_balance": outcome.NewBalance,
		"expired":     outcome.Expired,
	})
}

func (s *Server) checkBalance(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	action := c.Query("action")
	if tenantID == "" || action == "" {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: errorPayload{Code: "invalid_request", Message: "tenant_id and action are required"},
		})
		return
	}

	result := s.ledger.CheckBalance(c.Request.Context(), tenantID, models.BillableAction(action))
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	check := result.Value()
	c.JSON(http.StatusOK, gin.H{
		"can_proceed": check.CanProceed,
		"required":    check.Required,
		"available":   check.Available,
	})
}
