package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/httpresp"
)

const identityKey = "identity"

// Middleware resolves the bearer token into an Identity. Requests without an
// Authorization header continue as anonymous; malformed or invalid tokens are rejected.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			httpresp.Error(c, apperror.Unauthorized("authorization header must use the Bearer scheme"))
			return
		}

		identity, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpresp.Error(c, apperror.Unauthorized("invalid token"))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// FromContext returns the caller resolved by Middleware, or nil for anonymous callers
func FromContext(c *gin.Context) *Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*Identity)
	return identity
}
