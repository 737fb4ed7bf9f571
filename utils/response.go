package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// JSONReasonError sends an error response carrying a machine-readable reason
// code and, where meaningful, the current authoritative value needed to retry.
func JSONReasonError(c *gin.Context, status int, reason string, err error, extra map[string]any) {
	body := gin.H{
		"status": status,
		"reason": reason,
		"error":  err.Error(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
