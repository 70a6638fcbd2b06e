package databricks

import (
	"context"
	"errors"
	"net/http"

	"github.com/databricks/databricks-sdk-go/apierr"

	"github.com/txn2/mcp-databricks/pkg/errcode"
)

// ErrorRules maps SDK error sentinels to categories, most specific first.
func ErrorRules() []errcode.Rule {
	return []errcode.Rule{
		errcode.Is(apierr.ErrResourceDoesNotExist, errcode.CategoryNotFound),
		errcode.Is(apierr.ErrNotFound, errcode.CategoryNotFound),
		errcode.Is(apierr.ErrPermissionDenied, errcode.CategoryPermissionDenied),
		errcode.Is(apierr.ErrUnauthenticated, errcode.CategoryPermissionDenied),
		errcode.Is(apierr.ErrInvalidParameterValue, errcode.CategoryInvalidInput),
		errcode.Is(apierr.ErrBadRequest, errcode.CategoryInvalidInput),
		errcode.Is(apierr.ErrRequestLimitExceeded, errcode.CategoryRateLimited),
		errcode.Is(apierr.ErrTooManyRequests, errcode.CategoryRateLimited),
		errcode.Is(apierr.ErrResourceExhausted, errcode.CategoryRateLimited),
		errcode.Is(context.DeadlineExceeded, errcode.CategoryInternal),
		errcode.Is(context.Canceled, errcode.CategoryInternal),
	}
}

// errorCodeMarkers maps the string code carried on an API error.
var errorCodeMarkers = map[string]errcode.Category{
	"REQUEST_LIMIT_EXCEEDED":  errcode.CategoryRateLimited,
	"TOO_MANY_REQUESTS":       errcode.CategoryRateLimited,
	"RESOURCE_EXHAUSTED":      errcode.CategoryRateLimited,
	"TEMPORARILY_UNAVAILABLE": errcode.CategoryRateLimited,
	"RESOURCE_DOES_NOT_EXIST": errcode.CategoryNotFound,
	"NOT_FOUND":               errcode.CategoryNotFound,
	"FEATURE_DISABLED":        errcode.CategoryNotFound,
	"PERMISSION_DENIED":       errcode.CategoryPermissionDenied,
	"UNAUTHENTICATED":         errcode.CategoryPermissionDenied,
	"INVALID_PARAMETER_VALUE": errcode.CategoryInvalidInput,
	"INVALID_STATE":           errcode.CategoryInvalidInput,
	"MALFORMED_REQUEST":       errcode.CategoryInvalidInput,
	"BAD_REQUEST":             errcode.CategoryInvalidInput,
	"RESOURCE_ALREADY_EXISTS": errcode.CategoryInvalidInput,
}

var statusCategories = map[int]errcode.Category{
	http.StatusNotFound:        errcode.CategoryNotFound,
	http.StatusForbidden:       errcode.CategoryPermissionDenied,
	http.StatusUnauthorized:    errcode.CategoryPermissionDenied,
	http.StatusBadRequest:      errcode.CategoryInvalidInput,
	http.StatusConflict:        errcode.CategoryInvalidInput,
	http.StatusTooManyRequests: errcode.CategoryRateLimited,
}

// ClassifyAPIError is the errcode.Family for SDK API errors that matched no
// sentinel rule. It inspects the string error code, then the HTTP status,
// and falls back to internal.
func ClassifyAPIError(err error) (errcode.Category, bool) {
	var apiErr *apierr.APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	if category, ok := errorCodeMarkers[apiErr.ErrorCode]; ok {
		return category, true
	}
	if category, ok := statusCategories[apiErr.StatusCode]; ok {
		return category, true
	}
	return errcode.CategoryInternal, true
}

// NewClassifier returns a classifier configured for SDK errors.
func NewClassifier(opts ...errcode.Option) *errcode.Classifier {
	base := []errcode.Option{
		errcode.WithRules(ErrorRules()...),
		errcode.WithFamily(ClassifyAPIError),
	}
	return errcode.NewClassifier(append(base, opts...)...)
}
