// Package apperror holds the errors returned to API callers: a kind that
// picks the HTTP status, a stable code and a readable message.
package apperror

import "errors"

// Kind classifies an application error
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
)

// Stable machine-readable codes
const (
	CodeMissingFields   = "missing_fields"
	CodeInvalidDate     = "invalid_date"
	CodeRetroactiveDate = "retroactive_date"
	CodeInvalidAddress  = "invalid_address"
	CodeInvalidStatus   = "invalid_status"
	CodeInvalidItem     = "invalid_item"
	CodeInvalidID       = "invalid_id"
	CodeInvalidBody     = "invalid_body"
	CodeNotFound        = "not_found"
)

// Error is an error that can be shown to the caller as is
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Validation builds a KindValidation error
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound builds a KindNotFound error. The message never says whether the
// resource exists for somebody else.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

// As extracts an *Error from err
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsValidation(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindValidation
}

func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindNotFound
}
