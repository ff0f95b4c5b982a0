package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
)

// Code is a stable machine readable error identifier.
type Code string

const (
	CodeInvalidJSON              Code = "invalid_json"
	CodeInvalidEmail             Code = "invalid_email"
	CodeInvalidValue             Code = "invalid_value"
	CodeDuplicateEmail           Code = "duplicate_email"
	CodeMissingFields            Code = "missing_fields"
	CodePasswordMismatch         Code = "password_mismatch"
	CodeNoPassword               Code = "no_password"
	CodeIncorrectCurrentPassword Code = "incorrect_current_password"
	CodeMissingFile              Code = "missing_file"
	CodeFileTooLarge             Code = "file_too_large"
	CodeUnsupportedMethod        Code = "unsupported_method"
	CodeNotFound                 Code = "not_found"
	CodeInternal                 Code = "internal_error"
)

// Error is a domain failure that is reported to the caller.
type Error struct {
	Code    Code
	Message string
	// Fields optionally names the offending request keys.
	Fields []string
	// Status is the HTTP status the failure maps to.
	Status int
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

func newError(status int, code Code, message string, fields ...string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Fields:  fields,
		Status:  status,
	}
}

// ErrNotFound reports a missing user.
func ErrNotFound() *Error {
	return newError(http.StatusNotFound, CodeNotFound, "user not found")
}

// ErrUnsupportedMethod reports a request method the route does not accept.
func ErrUnsupportedMethod(method string) *Error {
	return newError(http.StatusMethodNotAllowed, CodeUnsupportedMethod, "method "+method+" is not supported")
}

// ErrInvalidJSON reports a body that is not a usable JSON object.
// If err already is an *Error it is returned unchanged.
func ErrInvalidJSON(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(http.StatusBadRequest, CodeInvalidJSON, "request body must be a JSON object")
}

func errInvalidFields(fields ...string) *Error {
	return newError(http.StatusBadRequest, CodeInvalidJSON, "fields have an unsupported type", fields...)
}

func errInvalidEmail() *Error {
	return newError(http.StatusBadRequest, CodeInvalidEmail, "enter a valid email address", "email")
}

func errInvalidValue(fields ...string) *Error {
	return newError(http.StatusBadRequest, CodeInvalidValue, "value exceeds the allowed length", fields...)
}

func errDuplicateEmail() *Error {
	return newError(http.StatusBadRequest, CodeDuplicateEmail, "a user with this email already exists", "email")
}

func errMissingFields(fields ...string) *Error {
	return newError(http.StatusBadRequest, CodeMissingFields, "all password fields are required", fields...)
}

func errPasswordMismatch() *Error {
	return newError(http.StatusBadRequest, CodePasswordMismatch, "new password and confirmation do not match", "new_password", "confirm_password")
}

func errNoPassword() *Error {
	return newError(http.StatusBadRequest, CodeNoPassword, "user has no password set")
}

func errIncorrectCurrentPassword() *Error {
	return newError(http.StatusBadRequest, CodeIncorrectCurrentPassword, "current password is incorrect", "current_password")
}

func errMissingFile() *Error {
	return newError(http.StatusBadRequest, CodeMissingFile, "no file uploaded", "upload", "file", "profile_picture")
}

// ErrFileTooLarge reports an upload above maxBytes.
func ErrFileTooLarge(maxBytes int64) *Error {
	return newError(http.StatusBadRequest, CodeFileTooLarge,
		"file exceeds the maximum size of "+humanize.Bytes(uint64(max(maxBytes, 0))))
}
