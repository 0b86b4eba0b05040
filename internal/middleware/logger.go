package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// AccessLog returns middleware that writes one line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		if len(c.Errors) > 0 {
			log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%d error=%q",
				GetRequestID(c), c.Request.Method, path, status, latency.Milliseconds(), c.Errors.Last().Error())
			return
		}
		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%d",
			GetRequestID(c), c.Request.Method, path, status, latency.Milliseconds())
	}
}
