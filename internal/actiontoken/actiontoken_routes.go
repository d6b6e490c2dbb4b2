package actiontoken

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	// No auth middleware: the token in the path is the credential.
	r.GET("/action/:token", handler.Redeem)
}
