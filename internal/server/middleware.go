package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"auction-core/internal/auctionerrors"
	"auction-core/internal/metrics"
	"auction-core/internal/security"
	"auction-core/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// IPBlockMiddleware rejects every request from an IP that crossed the
// suspicious-activity threshold, independent of route. A counter-store outage
// fails closed: this is a hard security gate.
func IPBlockMiddleware(monitor *security.Monitor, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		blocked, err := monitor.IsIPBlocked(c.Request.Context(), ip)
		if err != nil {
			m.SecurityBlocksTotal.WithLabelValues(auctionerrors.ReasonSecurityCheckUnavailable).Inc()
			utils.JSONReasonError(c, http.StatusServiceUnavailable, auctionerrors.ReasonSecurityCheckUnavailable, err, nil)
			c.Abort()
			return
		}
		if blocked {
			m.SecurityBlocksTotal.WithLabelValues(auctionerrors.ReasonIPBlocked).Inc()
			utils.Warn("blocked ip rejected", map[string]any{"ip": ip, "path": c.Request.URL.Path})
			utils.JSONReasonError(c, http.StatusForbidden, auctionerrors.ReasonIPBlocked, auctionerrors.ErrIPBlocked, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// WebhookAuthMiddleware authenticates the inbound analysis webhooks with a
// shared secret header, compared in constant time. An invalid secret is
// rejected before any core state is touched.
func WebhookAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Webhook-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			utils.Warn("webhook rejected: invalid secret", map[string]any{"ip": c.ClientIP(), "path": c.Request.URL.Path})
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidSignal, "invalid webhook credentials")
			c.Abort()
			return
		}
		c.Next()
	}
}
