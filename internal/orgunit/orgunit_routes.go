package orgunit

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	units := r.Group("/org-units")
	units.Use(middleware.AuthMiddleware())
	{
		units.GET("", middleware.RBACAuthorize(rbacService, "org_unit", "read"), handler.GetAll)
		units.GET("/:id", middleware.RBACAuthorize(rbacService, "org_unit", "read"), handler.GetById)
		units.POST("", middleware.RBACAuthorize(rbacService, "org_unit", "manage"), handler.Create)
		units.PUT("/:id", middleware.RBACAuthorize(rbacService, "org_unit", "manage"), handler.Update)
		units.DELETE("/:id", middleware.RBACAuthorize(rbacService, "org_unit", "manage"), handler.Delete)
	}
}
