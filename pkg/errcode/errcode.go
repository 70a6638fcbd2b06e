// Package errcode classifies endpoint failures into a closed set of outward
// error categories with stable numeric codes.
package errcode

import (
	"errors"
	"fmt"
)

// Category is an outward-facing error classification.
type Category string

// Error categories.
const (
	CategoryNotFound         Category = "not_found"
	CategoryPermissionDenied Category = "permission_denied"
	CategoryInvalidInput     Category = "invalid_input"
	CategoryRateLimited      Category = "rate_limited"
	CategoryInternal         Category = "internal"
	CategoryUnknown          Category = "unknown"
)

// Numeric codes. Values follow the JSON-RPC server error range.
const (
	CodeNotFound         = -32002
	CodePermissionDenied = -32003
	CodeInvalidInput     = -32602
	CodeRateLimited      = -32029
	CodeInternal         = -32603
	CodeUnknown          = -32000
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryNotFound,
	CategoryPermissionDenied,
	CategoryInvalidInput,
	CategoryRateLimited,
	CategoryInternal,
	CategoryUnknown,
}

var categoryCodes = map[Category]int{
	CategoryNotFound:         CodeNotFound,
	CategoryPermissionDenied: CodePermissionDenied,
	CategoryInvalidInput:     CodeInvalidInput,
	CategoryRateLimited:      CodeRateLimited,
	CategoryInternal:         CodeInternal,
	CategoryUnknown:          CodeUnknown,
}

var categoryTitles = map[Category]string{
	CategoryNotFound:         "resource not found",
	CategoryPermissionDenied: "permission denied",
	CategoryInvalidInput:     "invalid input",
	CategoryRateLimited:      "rate limited",
	CategoryInternal:         "internal server error",
	CategoryUnknown:          "unexpected error",
}

// Code returns the numeric code for the category.
func (c Category) Code() int {
	if code, ok := categoryCodes[c]; ok {
		return code
	}
	return CodeUnknown
}

// Title returns the default message template for the category.
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return categoryTitles[CategoryUnknown]
}

// Error is a classified endpoint failure.
type Error struct {
	Category Category `json:"category"`
	Code     int      `json:"code"`
	Message  string   `json:"message"`
	Endpoint string   `json:"endpoint,omitempty"`

	cause error
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.cause
}

// ValidationError reports a bad argument or argument combination detected
// before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ErrPermissionDenied marks local refusals, such as a disabled feature gate.
var ErrPermissionDenied = errors.New("permission denied")

// Denied returns an error wrapping ErrPermissionDenied.
func Denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// ErrUpstreamFailed marks remote work that completed in a failed state, such
// as a statement that finished FAILED.
var ErrUpstreamFailed = errors.New("upstream operation failed")

// Failed returns an error wrapping ErrUpstreamFailed.
func Failed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamFailed, fmt.Sprintf(format, args...))
}
