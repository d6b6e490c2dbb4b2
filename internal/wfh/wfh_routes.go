package wfh

import (
	"hrflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	requests := r.Group("/wfh-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", handler.Submit)
		requests.GET("/mine", handler.ListMine)
		requests.GET("/pending", middleware.RBACAuthorize(rbacService, "wfh_request", "decide"), handler.ListPendingApprovals)
		requests.GET("/:id", handler.GetByID)
		requests.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "wfh_request", "decide"), handler.Approve)
		requests.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "wfh_request", "decide"), handler.Reject)
		requests.POST("/:id/cancel", handler.Cancel)
		requests.PATCH("/:id/comments", handler.UpdateComments)
	}
}
