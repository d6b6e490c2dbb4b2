package actiontokenerrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrTokenInvalid = apperror.New(
		apperror.CodeTokenInvalid,
		"this link is not valid",
		http.StatusNotFound,
	)
	ErrTokenExpired = apperror.New(
		apperror.CodeTokenExpired,
		"this link has expired",
		http.StatusForbidden,
	)
	ErrTokenUsed = apperror.New(
		apperror.CodeTokenUsed,
		"this request has already been decided",
		http.StatusBadRequest,
	)
	ErrUnknownResource = apperror.New(
		apperror.CodeInternalError,
		"no handler registered for this resource type",
		http.StatusInternalServerError,
	)
)
