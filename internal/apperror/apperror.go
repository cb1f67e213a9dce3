// Package apperror carries the error taxonomy shared by services and HTTP
// handlers. Services return *Error values; the HTTP layer maps Code to a status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeTimeout         Code = "REQUEST_TIMEOUT"
	CodeConflict        Code = "CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE_ENTITY"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Response messages surfaced to API clients
const (
	MsgNotFound       = "Not found"
	MsgBadRequest     = "Bad Request"
	MsgConflict       = "Already exist"
	MsgUnauthorized   = "User is not authorized"
	MsgIncorrectID    = "Incorrect ID"
	MsgForbidden      = "Access Denied"
	MsgServerError    = "Internal error"
	MsgAuthError      = "Authorization error"
	MsgValidateAccess = "Access Denied (only available to owner or administrator)"
	MsgTimeout        = "Request Timeout"
)

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Code
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, resource+" "+MsgNotFound)
}

func Conflict(resource string) *Error {
	return New(CodeConflict, resource+" "+MsgConflict)
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func Unprocessable(message string) *Error {
	return New(CodeUnprocessable, message)
}

func Internal(err error) *Error {
	return Wrap(err, CodeInternal, MsgServerError)
}

// From extracts an *Error from the chain; anything else becomes an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HTTPStatus maps a Code to its HTTP status
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeConflict:
		return http.StatusConflict
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
