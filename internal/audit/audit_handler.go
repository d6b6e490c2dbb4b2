package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hrflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("audit.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.handler")
	}
	return &Handler{repo: repo, logger: l}
}

type recordResponse struct {
	ID           string         `json:"id"`
	ActorID      *string        `json:"actor_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    *string        `json:"created_at,omitempty"`
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 {
		pageSize = 50
	}

	recs, total, err := h.repo.List(c.Request.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger.Warn("list audit records failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, mapRecords(recs), &meta)
}

func (h *Handler) ListByResource(c *gin.Context) {
	recs, err := h.repo.ListByResource(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.logger.Warn("list audit records by resource failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapRecords(recs))
}

func mapRecords(recs []Record) []recordResponse {
	out := make([]recordResponse, len(recs))
	for i, rec := range recs {
		out[i] = mapRecord(rec)
	}
	return out
}

func mapRecord(rec Record) recordResponse {
	resp := recordResponse{
		ID:           rec.ID.String(),
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
	}
	if rec.ActorID != nil {
		v := rec.ActorID.String()
		resp.ActorID = &v
	}
	if rec.ResourceID != nil {
		v := rec.ResourceID.String()
		resp.ResourceID = &v
	}
	if rec.CreatedAt != nil {
		v := rec.CreatedAt.UTC().Format(time.RFC3339)
		resp.CreatedAt = &v
	}
	if len(rec.Metadata) > 0 {
		meta := make(map[string]any)
		if err := json.Unmarshal(rec.Metadata, &meta); err == nil {
			resp.Metadata = meta
		}
	}
	return resp
}
