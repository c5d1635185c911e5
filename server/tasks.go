package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// expireAll is invoked by an external scheduler, typically daily.
func (s *Server) expireAll(c *gin.Context) {
	result := s.ledger.ExpireAll(c.Request.Context())
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	outcome := result.Value()
	c.JSON(http.StatusOK, gin.H{
		"tenants": outcome.Tenants,
		"expired": outcome.Expired,
		"failed":  outcome.Failed,
	})
}

type auditRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// auditTenant verifies the ledger sum against the stored balance.
func (s *Server) auditTenant(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result := s.ledger.AuditTenant(c.Request.Context(), req.TenantID)
	if result.Failure() {
		s.respondFailure(c, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenant_id": req.TenantID,
		"balanced":  result.Value(),
	})
}
