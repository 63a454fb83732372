package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
	"github.com/campuspulse/engagement-api/pkg/response"
)

// RequireCapability gates a route on the host-issued token carrying at
// least one of the named capabilities.
func RequireCapability(capabilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, capability := range capabilities {
			if claims.HasCapability(capability) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
