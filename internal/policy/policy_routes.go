package policy

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	types := r.Group("/leave-types")
	types.Use(middleware.AuthMiddleware())
	{
		types.GET("", middleware.RBACAuthorize(rbacService, "policy", "read"), handler.GetLeaveTypes)
		types.POST("", middleware.RBACAuthorize(rbacService, "policy", "manage"), handler.CreateLeaveType)
		types.DELETE("/:id", middleware.RBACAuthorize(rbacService, "policy", "manage"), handler.DeleteLeaveType)
	}

	policies := r.Group("/policies")
	policies.Use(middleware.AuthMiddleware())
	{
		policies.GET("", middleware.RBACAuthorize(rbacService, "policy", "read"), handler.GetPolicies)
		policies.GET("/mine", handler.GetMyPolicies)
		policies.POST("", middleware.RBACAuthorize(rbacService, "policy", "manage"), handler.CreatePolicy)
		policies.DELETE("/:id", middleware.RBACAuthorize(rbacService, "policy", "manage"), handler.DeletePolicy)
	}
}
