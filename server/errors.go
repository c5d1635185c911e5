package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentwire/points-service/utils"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// respondFailure maps a failed result onto the HTTP surface. Business codes
// get their own statuses; anything without a code is an infrastructure error
// and surfaces as an opaque 500.
func (s *Server) respondFailure(c *gin.Context, result utils.AnyResult) {
	status := statusForCode(result.ErrorCode())

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", result.ErrorMsg()),
		)
		if result.IsCapturable() {
			utils.CaptureErrorResult(result)
		}

		c.JSON(status, errorResponse{
			Error: errorPayload{Code: "internal_error", Message: "internal server error"},
		})
		return
	}

	c.JSON(status, errorResponse{
		Error: errorPayload{Code: result.ErrorCode(), Message: result.ErrorMessage()},
	})
}

func statusForCode(code string) int {
	switch code {
	case "no_subscription":
		return http.StatusNotFound
	case "subscription_inactive", "insufficient_points":
		return http.StatusPaymentRequired
	case "conflict", "duplicate_session":
		return http.StatusConflict
	case "unknown_action", "invalid_grant":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error: errorPayload{Code: "invalid_request", Message: err.Error()},
	})
}
