package serverutils

import (
	"errors"
	"fmt"
)

// ErrorCode classifies request-level failures for the HTTP layer.
type ErrorCode string

const (
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
	CodeEmptyCorpus     ErrorCode = "EMPTY_CORPUS_MATCH"
	CodeSelectionFailed ErrorCode = "SELECTION_FAILED"
	CodeTimeout         ErrorCode = "TIMED_OUT"
	CodeUpstream        ErrorCode = "UPSTREAM_ERROR"
	CodeInternal        ErrorCode = "INTERNAL"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message}
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
