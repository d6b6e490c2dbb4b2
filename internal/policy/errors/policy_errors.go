package policyerrors

import (
	"net/http"

	"hrflow/internal/shared/apperror"
)

var (
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found",
		http.StatusNotFound,
	)
	ErrPolicyNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrKindExists = apperror.New(
		apperror.CodeDuplicateRequest,
		"a leave type of this kind already exists",
		http.StatusConflict,
	)
	ErrCustomCodeRequired = apperror.New(
		apperror.CodeInvalidInput,
		"custom leave types require a code",
		http.StatusBadRequest,
	)
	ErrInvalidID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid id",
		http.StatusBadRequest,
	)

	// Eligibility violations, surfaced with a machine-readable reason.
	ErrEndBeforeStart = apperror.New(
		apperror.CodeEligibility,
		"end_before_start: end date is before start date",
		http.StatusBadRequest,
	)
	ErrWeekendsOnly = apperror.New(
		apperror.CodeEligibility,
		"weekends_only: the requested span contains no working days",
		http.StatusBadRequest,
	)
	ErrLeadTime = apperror.New(
		apperror.CodeEligibility,
		"lead_time: the request was not submitted far enough in advance",
		http.StatusBadRequest,
	)
	ErrGenderMismatch = apperror.New(
		apperror.CodeEligibility,
		"gender_mismatch: this leave type is not applicable",
		http.StatusBadRequest,
	)
	ErrCommentsTooShort = apperror.New(
		apperror.CodeEligibility,
		"comments_too_short: please describe the request in at least 40 characters",
		http.StatusBadRequest,
	)
)
