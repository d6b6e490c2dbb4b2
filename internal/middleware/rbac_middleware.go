package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/response"
)

// RBACService is a local interface so this package does not import the
// rbac package, which registers routes through this one.
type RBACService interface {
	Enforce(ctx context.Context, userID, resource, action string) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id_validated")
		if userID == "" {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(c.Request.Context(), userID, resource, action)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, apperror.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
