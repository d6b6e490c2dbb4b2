package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrflow/internal/shared/contextutil"
)

// ContextLogger attaches a request-scoped logger to the request context.
// It runs after RequestID and AuthMiddleware so both fields are available.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := []zap.Field{}

		if rid := c.GetString("request_id"); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if uid := c.GetString("user_id_validated"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}

		reqLogger := logger.With(fields...)

		ctx := c.Request.Context()
		if uid := c.GetString("user_id_validated"); uid != "" {
			ctx = contextutil.WithUserID(ctx, uid)
		}
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
