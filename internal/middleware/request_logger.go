package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs each request with method, path, status, latency
// and the parsed client user agent.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ua := user_agent.New(c.Request.UserAgent())
		browser, version := ua.Browser()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"browser":    browser + " " + version,
			"os":         ua.OS(),
		}).Info("Request handled")
	}
}

// Recovery converts panics into a generic 500 response so one failing
// request never takes down the pipeline for others.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithField("panic", recovered).Error("Recovered from panic")
		c.AbortWithStatusJSON(500, gin.H{"success": false, "error": "Internal server error"})
	})
}
