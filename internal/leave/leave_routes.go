package leave

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"hrflow/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", middleware.Idempotency(rdb), handler.Submit)
		requests.GET("/mine", handler.ListMine)
		requests.GET("/pending", middleware.RBACAuthorize(rbacService, "leave_request", "decide"), handler.ListPendingApprovals)
		requests.GET("/:id", handler.GetByID)
		requests.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave_request", "decide"), handler.Approve)
		requests.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave_request", "decide"), handler.Reject)
		requests.POST("/:id/cancel", handler.Cancel)
		requests.PATCH("/:id/comments", handler.UpdateComments)
		requests.POST("/:id/document", handler.AttachDocument)
	}
}
