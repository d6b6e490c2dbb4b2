package actiontoken

import (
	"errors"
	"fmt"
	"net/http"

	actiontokenerrors "hrflow/internal/actiontoken/errors"
	"hrflow/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

const resultPage = `<!DOCTYPE html>
<html>
<head><title>Leave Request</title></head>
<body style="font-family: sans-serif; max-width: 32em; margin: 4em auto;">
<h2>%s</h2>
<p>%s</p>
</body>
</html>`

// Redeem handles the one-click links from approval emails. The token in
// the path is the whole credential, so there is no auth middleware here.
func (h *Handler) Redeem(c *gin.Context) {
	result, err := h.service.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		status, title, body := http.StatusInternalServerError, "Something went wrong", "Please try again later."
		switch {
		case errors.Is(err, actiontokenerrors.ErrTokenInvalid):
			status, title, body = http.StatusNotFound, "Link not found", "This link is not valid. It may have been revoked."
		case errors.Is(err, actiontokenerrors.ErrTokenExpired):
			status, title, body = http.StatusForbidden, "Link expired", "This link has expired. Please decide the request from the dashboard."
		case errors.Is(err, actiontokenerrors.ErrTokenUsed):
			status, title, body = http.StatusBadRequest, "Already decided", "This request has already been decided."
		default:
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				status, title, body = appErr.HTTPStatus, "Unable to process", appErr.Message
			}
			// The link surface only speaks 400, 403 and 404; a state
			// conflict from the request services renders as 400 here.
			if status == http.StatusConflict {
				status = http.StatusBadRequest
			}
		}
		c.Data(status, "text/html; charset=utf-8", []byte(fmt.Sprintf(resultPage, title, body)))
		return
	}

	title := "Request approved"
	if result.Action == ActionReject {
		title = "Request rejected"
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8",
		[]byte(fmt.Sprintf(resultPage, title, "The requester has been notified.")))
}
