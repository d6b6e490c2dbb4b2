package balanceerrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficient,
		"insufficient balance for the requested days",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeAmount = apperror.New(
		apperror.CodeInvalidInput,
		"amount must be greater than zero",
		http.StatusBadRequest,
	)
	ErrNegativeBalance = apperror.New(
		apperror.CodeInvalidInput,
		"balance may not be set below zero",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"balance not found",
		http.StatusNotFound,
	)
	ErrInvalidID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid id",
		http.StatusBadRequest,
	)
)
