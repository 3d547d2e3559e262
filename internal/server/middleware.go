package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/httpresp"
	"restaurant-orders/internal/logger"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// withLogging assigns a request id and logs the start and end of each request
func withLogging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = logger.GenerateRequestID()
		}
		c.Set(httpresp.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		r := c.Request
		log.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": c.ClientIP(),
				"user_agent":  r.UserAgent(),
			})

		c.Next()

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		message := fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, c.Writer.Status())

		if c.Writer.Status() >= 500 {
			log.Warn("request_completed", message, requestID, fields)
			return
		}
		log.Debug("request_completed", message, requestID, fields)
	}
}

// withRecovery turns a panicking handler into a 500 response
func withRecovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				log.Error("handler_panic", "Recovered from panic", httpresp.RequestID(c), err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				httpresp.Error(c, err)
			}
		}()
		c.Next()
	}
}
