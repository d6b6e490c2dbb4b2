package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrflow/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListGrants shows the effective grant table per role band.
func (h *Handler) ListGrants(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.Grants())
}
