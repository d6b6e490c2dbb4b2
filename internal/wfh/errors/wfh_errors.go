package wfherrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"wfh request not found",
		http.StatusNotFound,
	)
	ErrInvalidState = apperror.New(
		apperror.CodeInvalidState,
		"wfh request has already been decided",
		http.StatusConflict,
	)
	ErrDuplicateRequest = apperror.New(
		apperror.CodeDuplicateRequest,
		"an identical wfh request already exists",
		http.StatusConflict,
	)
	ErrSelfDecision = apperror.New(
		apperror.CodeForbidden,
		"you cannot decide your own request",
		http.StatusForbidden,
	)
	ErrNotApprover = apperror.New(
		apperror.CodeForbidden,
		"you are not an approver for this request",
		http.StatusForbidden,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the request owner may do this",
		http.StatusForbidden,
	)
	ErrInvalidID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid id",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"dates must be in YYYY-MM-DD format",
		http.StatusBadRequest,
	)
)
