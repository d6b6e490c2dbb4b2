package orguniterrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrInvalidUnitID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid org unit id",
		http.StatusBadRequest,
	)
	ErrUnitNotFound = apperror.New(
		apperror.CodeNotFound,
		"org unit not found",
		http.StatusNotFound,
	)
	ErrParentNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"parent org unit not found",
		http.StatusBadRequest,
	)
	ErrCycleDetected = apperror.New(
		apperror.CodeInvalidInput,
		"org unit cannot be moved under its own subtree",
		http.StatusBadRequest,
	)
	ErrUnitHasChildren = apperror.New(
		apperror.CodeInvalidState,
		"org unit still has child units",
		http.StatusBadRequest,
	)
)
