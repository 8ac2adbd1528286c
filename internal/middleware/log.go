package middleware

import (
	"log/slog"

	"drink-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// ErrorLog writes every error a handler attached with c.Error. Handlers
// only attach errors they answered with a 5xx, so client mistakes stay
// out of the log.
func ErrorLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		var userID uint
		if v, ok := c.Get(CurrentUserKey); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		for _, e := range c.Errors {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", c.Writer.Status(),
				"user_id", userID,
				"error", e.Err,
			)
		}
	}
}
