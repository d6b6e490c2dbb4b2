package response

import (
	"github.com/gin-gonic/gin"

	"hrflow/internal/shared/apperror"
)

type PaginationMeta struct {
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"totalPages,omitempty"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"pageSize,omitempty"`
}

func NewPaginationMeta(total int64, page, limit int) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return PaginationMeta{
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   limit,
	}
}

type ApiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Meta  *PaginationMeta `json:"meta,omitempty"`
	Error any             `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, data any, meta ...*PaginationMeta) {
	var m *PaginationMeta
	if len(meta) > 0 {
		m = meta[0]
	}
	c.JSON(status, ApiEnvelope{
		Ok:   true,
		Data: data,
		Meta: m,
	})
}

// Error renders any error through the apperror taxonomy; unknown errors
// come out as a generic 500 without leaking their message.
func Error(c *gin.Context, err error) {
	h := apperror.ToHTTP(err)
	c.JSON(h.Status, ApiEnvelope{
		Ok: false,
		Error: map[string]any{
			"code":    h.Code,
			"message": h.Message,
			"details": h.Details,
		},
	})
}
