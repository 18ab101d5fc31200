package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrorNotConfigured  ErrorCode = "NOT_CONFIGURED"
	ErrorUpstreamStatus ErrorCode = "UPSTREAM_STATUS"
	ErrorInternal       ErrorCode = "INTERNAL_ERROR"
)

// outcomeOK labels successful calls in metrics and audit records.
const outcomeOK = "OK"

type Error struct {
	Code   ErrorCode
	Reason string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

func newStatusError(status int, err error) *Error {
	return &Error{Code: ErrorUpstreamStatus, Reason: "non_success_status", Status: status, Err: err}
}
