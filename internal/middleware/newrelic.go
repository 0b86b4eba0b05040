package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes returns middleware that decorates the nrgin transaction
// with the request id and reports handler errors. It must run after
// nrgin.Middleware and RequestID.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		txn.AddAttribute(RequestIDKey, GetRequestID(c))

		c.Next()

		// Record error if present.
		if c.Writer.Status() >= 500 {
			for _, err := range c.Errors {
				txn.NoticeError(err.Err)
			}
		}
	}
}
