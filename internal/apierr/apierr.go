package apierr

import "fmt"

const (
	CodeValidation      = "validation_error"
	CodeQuotaExceeded   = "quota_exceeded"
	CodeNoValidProducts = "no_valid_products"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(400, CodeValidation, fmt.Errorf(format, args...))
}

func QuotaExceeded(format string, args ...interface{}) *Error {
	return New(400, CodeQuotaExceeded, fmt.Errorf(format, args...))
}

func NoValidProducts() *Error {
	return New(400, CodeNoValidProducts, fmt.Errorf("No valid products found"))
}
