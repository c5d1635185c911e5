package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentwire/points-service/ledger"
)

type Config struct {
	// ScheduleSecret guards the /v1/tasks routes invoked by the scheduler.
	ScheduleSecret string
}

type Server struct {
	engine *gin.Engine
	ledger *ledger.Ledger
	logger *slog.Logger
	config Config
}

func NewServer(l *ledger.Ledger, logger *slog.Logger, config Config) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		ledger: l,
		logger: logger.With("component", "http"),
		config: config,
	}
	s.registerRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/points/consume", s.consumePoints)
		v1.POST("/points/grants", s.grantPoints)
		v1.GET("/points/balance_check", s.checkBalance)

		v1.POST("/conversations", s.startConversation)
		v1.POST("/conversations/:id/close", s.closeConversation)
		v1.POST("/messages", s.sendMessage)
		v1.POST("/contact_disclosures", s.discloseContact)

		v1.POST("/interests/:id/approve", s.approveInterest)
		v1.POST("/interests/:id/decline", s.declineInterest)
		v1.POST("/memberships/:id/disable", s.disableMembership)

		tasks := v1.Group("/tasks", s.scheduleAuth())
		{
			tasks.POST("/expire_all", s.expireAll)
			tasks.POST("/audit", s.auditTenant)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) scheduleAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.ScheduleSecret == "" || c.GetHeader("X-Schedule-Secret") != s.config.ScheduleSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error: errorPayload{Code: "unauthorized", Message: "invalid schedule secret"},
			})
			return
		}
		c.Next()
	}
}
