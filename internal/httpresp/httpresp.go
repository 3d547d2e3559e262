package httpresp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/logger"
)

// RequestIDKey is the gin context key holding the current request id
const RequestIDKey = "request_id"

// RequestID returns the request id assigned by the logging middleware
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// Error writes err as a JSON error response; unclassified errors become 500s
// without leaking their message.
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	body := gin.H{
		"kind":       kind,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": RequestID(c),
	}

	if appErr, ok := apperror.As(err); ok && kind != apperror.KindInternal {
		body["error"] = appErr.Message
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
	} else {
		body["error"] = "Internal server error"
	}

	c.AbortWithStatusJSON(status, body)
}

// JSON writes a successful JSON response
func JSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// NoContent writes an empty 204 response
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Context returns the request context carrying the request id for service logs
func Context(c *gin.Context) context.Context {
	return logger.WithRequestID(c.Request.Context(), RequestID(c))
}

// ParamID parses a positive integer path parameter
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// BindJSON decodes the request body into dst
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation("body", "invalid JSON format")
	}
	return nil
}
