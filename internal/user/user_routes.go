package user

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("", middleware.RBACAuthorize(rbacService, "user", "read"), handler.GetAll)
		users.GET("/options", middleware.RBACAuthorize(rbacService, "user", "read"), handler.GetOptions)
		users.GET("/:id", middleware.RBACAuthorize(rbacService, "user", "read"), handler.GetById)
		users.POST("", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.Invite)
		users.PUT("/:id", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.Update)
		users.POST("/:id/deactivate", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.Deactivate)
		users.DELETE("/:id", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.Delete)
	}
}
