package usererrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrEmailTaken = apperror.New(
		apperror.CodeDuplicateRequest,
		"email is already registered",
		http.StatusConflict,
	)
	ErrManagerNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"manager not found",
		http.StatusBadRequest,
	)
	ErrSelfManager = apperror.New(
		apperror.CodeInvalidInput,
		"a user cannot be their own manager",
		http.StatusBadRequest,
	)
	ErrInvalidJoinDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid join_date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrUserHasRequests = apperror.New(
		apperror.CodeInvalidState,
		"user still has leave or WFH requests; deactivate instead",
		http.StatusBadRequest,
	)
)
