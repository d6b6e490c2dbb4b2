package leave

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/response"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// NewHandlerWithRedis additionally caches successful submissions under the
// caller's Idempotency-Key so retries replay instead of re-submitting.
func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	userID := c.GetString("user_id_validated")
	resp, err := h.service.Submit(c.Request.Context(), userID, req)

	if h.rdb != nil {
		if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
			defer h.rdb.Del(c.Request.Context(), lockKey)
		}
	}

	if err != nil {
		response.Error(c, err)
		return
	}

	if h.rdb != nil {
		if cacheKey := c.GetString("idempotency_cache_key"); cacheKey != "" {
			if payload, merr := json.Marshal(resp); merr == nil {
				h.rdb.Set(c.Request.Context(), cacheKey, payload, 24*time.Hour)
			}
		}
	}

	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, actorID, id string, note *string) (LeaveResponse, error)) {
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

func (h *Handler) AttachDocument(c *gin.Context) {
	var req AttachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	actorID := c.GetString("user_id_validated")
	if err := h.service.AttachDocument(c.Request.Context(), actorID, c.Param("id"), req.DocumentURL); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attached": true})
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
