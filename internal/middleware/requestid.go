package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	clientRequestIDKey = "client_request_id"
	maxClientIDLen     = 128
)

// RequestID assigns every request a server-generated UUID. A client supplied
// X-Request-ID is kept as client_request_id for correlation only.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" && len(clientID) <= maxClientIDLen {
			c.Set(clientRequestIDKey, clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger returns log tagged with the request IDs of c, so a failed
// search can be matched with its access log line and the client's own ID.
func RequestLogger(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	fields := logrus.Fields{RequestIDKey: c.GetString(RequestIDKey)}

	if clientID := c.GetString(clientRequestIDKey); clientID != "" {
		fields[clientRequestIDKey] = clientID
	}

	return log.WithFields(fields)
}
