package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one entry per request. Server errors log at error
// level with whatever the handler attached through c.Error.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if userID := GetUserID(c); userID != "" {
			entry = entry.WithFields(logrus.Fields{
				"user_id":  userID,
				"username": GetUsername(c),
			})
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
