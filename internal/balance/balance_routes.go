package balance

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("/mine", handler.GetMine)
		balances.GET("/users/:id", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetForUser)
		balances.POST("/adjust", middleware.RBACAuthorize(rbacService, "balance", "manage"), handler.Adjust)
	}
}
