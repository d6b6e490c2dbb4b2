package rbac

import (
	"github.com/gin-gonic/gin"

	"hrflow/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService Service) {
	grants := r.Group("/rbac")
	grants.Use(middleware.AuthMiddleware())
	{
		grants.GET("/grants", middleware.RBACAuthorize(rbacService, "rbac", "read"), handler.ListGrants)
	}
}
