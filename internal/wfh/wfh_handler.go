package wfh

import (
	"context"
	"net/http"

	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitWFHRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	userID := c.GetString("user_id_validated")
	resp, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, actorID, id string, note *string) (WFHResponse, error)) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	actorID := c.GetString("user_id_validated")
	resp, err := fn(c.Request.Context(), actorID, c.Param("id"), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) Cancel(c *gin.Context) {
	actorID := c.GetString("user_id_validated")
	resp, err := h.service.Cancel(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) UpdateComments(c *gin.Context) {
	var req UpdateCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	actorID := c.GetString("user_id_validated")
	if err := h.service.UpdateComments(c.Request.Context(), actorID, c.Param("id"), req.Comments); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) GetByID(c *gin.Context) {
	actorID := c.GetString("user_id_validated")
	resp, err := h.service.GetByID(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) ListMine(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	resp, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) ListPendingApprovals(c *gin.Context) {
	actorID := c.GetString("user_id_validated")
	resp, err := h.service.ListPendingApprovals(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}
