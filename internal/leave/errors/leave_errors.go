package leaveerrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidState = apperror.New(
		apperror.CodeInvalidState,
		"request is no longer pending",
		http.StatusConflict,
	)
	ErrDuplicateRequest = apperror.New(
		apperror.CodeDuplicateRequest,
		"an identical request already exists",
		http.StatusConflict,
	)
	ErrSelfDecision = apperror.New(
		apperror.CodeForbidden,
		"you cannot decide your own request",
		http.StatusForbidden,
	)
	ErrNotApprover = apperror.New(
		apperror.CodeForbidden,
		"only HR, admins or the owner's manager may decide this request",
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
		"dates must be YYYY-MM-DD",
		http.StatusBadRequest,
	)
)
