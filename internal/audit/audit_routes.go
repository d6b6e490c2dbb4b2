package audit

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	records := r.Group("/audit")
	records.Use(middleware.AuthMiddleware())
	{
		records.GET("", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.List)
		records.GET("/:type/:id", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.ListByResource)
	}
}
