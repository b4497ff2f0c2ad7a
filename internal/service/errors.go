package service

import "errors"

// Domain errors. All are per-request and recoverable by the caller; handlers
// map them onto response codes and HTTP statuses.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("resource does not belong to caller")

	ErrMembershipRequired = errors.New("active membership required")
	ErrFeatureNotEntitled = errors.New("membership does not grant this feature")
	ErrQuotaExhausted     = errors.New("feature quota exhausted")

	ErrNotYetOpen = errors.New("assessment window has not opened")
	ErrClosed     = errors.New("assessment window has closed")

	// ErrBlocked signals a recoverable suspension (HTTP 423), distinct from
	// an ordinary forbidden: submitting the unlock code restores access.
	ErrBlocked       = errors.New("access blocked pending unlock code")
	ErrInvalidCode   = errors.New("unlock code mismatch")
	ErrNoActiveBlock = errors.New("no active block for this type")

	ErrAttemptCompleted = errors.New("attempt already completed")

	ErrQuestionSetInvalid = errors.New("question set failed validation")
)
