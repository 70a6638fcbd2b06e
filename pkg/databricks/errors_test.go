package databricks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/databricks/databricks-sdk-go/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-databricks/pkg/errcode"
)

func newQuietClassifier() *errcode.Classifier {
	return NewClassifier(errcode.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
}

func TestClassifier_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errcode.Category
	}{
		{"resource does not exist", apierr.ErrResourceDoesNotExist, errcode.CategoryNotFound},
		{"not found", apierr.ErrNotFound, errcode.CategoryNotFound},
		{"permission denied", apierr.ErrPermissionDenied, errcode.CategoryPermissionDenied},
		{"unauthenticated", apierr.ErrUnauthenticated, errcode.CategoryPermissionDenied},
		{"invalid parameter", apierr.ErrInvalidParameterValue, errcode.CategoryInvalidInput},
		{"bad request", apierr.ErrBadRequest, errcode.CategoryInvalidInput},
		{"request limit", apierr.ErrRequestLimitExceeded, errcode.CategoryRateLimited},
		{"too many requests", apierr.ErrTooManyRequests, errcode.CategoryRateLimited},
		{"deadline", context.DeadlineExceeded, errcode.CategoryInternal},
	}

	c := newQuietClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, endpoint := range []string{"databricks_compute_start_cluster", "databricks://jobs"} {
				got := c.Classify(endpoint, fmt.Errorf("wrapped: %w", tt.err))
				assert.Equal(t, tt.want, got.Category)
			}
		})
	}
}

func TestClassifier_APIErrorFallback(t *testing.T) {
	tests := []struct {
		name string
		err  *apierr.APIError
		want errcode.Category
	}{
		{
			name: "rate limit marker",
			err:  &apierr.APIError{ErrorCode: "REQUEST_LIMIT_EXCEEDED", StatusCode: http.StatusOK, Message: "slow down"},
			want: errcode.CategoryRateLimited,
		},
		{
			name: "not found marker",
			err:  &apierr.APIError{ErrorCode: "RESOURCE_DOES_NOT_EXIST", Message: "Cluster 123 does not exist"},
			want: errcode.CategoryNotFound,
		},
		{
			name: "status only",
			err:  &apierr.APIError{StatusCode: http.StatusForbidden, Message: "nope"},
			want: errcode.CategoryPermissionDenied,
		},
		{
			name: "unmatched",
			err:  &apierr.APIError{ErrorCode: "INTERNAL_ERROR", StatusCode: http.StatusInternalServerError, Message: "kaboom"},
			want: errcode.CategoryInternal,
		},
	}

	c := newQuietClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify("endpoint", tt.err).Category)
		})
	}
}

func TestClassifier_NotFoundMessage(t *testing.T) {
	c := newQuietClassifier()
	err := &apierr.APIError{ErrorCode: "RESOURCE_DOES_NOT_EXIST", StatusCode: http.StatusNotFound, Message: "Cluster 0123 does not exist"}

	got := c.Classify("databricks_compute_start_cluster", err)
	require.NotNil(t, got)
	assert.Equal(t, errcode.CategoryNotFound, got.Category)
	assert.Equal(t, errcode.CodeNotFound, got.Code)
	assert.Contains(t, got.Message, "*apierr.APIError")
	assert.Contains(t, got.Message, "Cluster 0123 does not exist")
}

func TestClassifyAPIError_NonAPI(t *testing.T) {
	_, ok := ClassifyAPIError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, errcode.CategoryUnknown, newQuietClassifier().Category(errors.New("plain")))
}
