package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
	CodeInvalidState     = "INVALID_STATE"
	CodeEligibility      = "ELIGIBILITY_VIOLATION"
	CodeInsufficient     = "INSUFFICIENT_BALANCE"
	CodeTokenInvalid     = "TOKEN_INVALID"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeTokenUsed        = "TOKEN_ALREADY_USED"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
