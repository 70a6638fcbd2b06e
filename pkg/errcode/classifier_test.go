package errcode

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTestNotFound      = errors.New("not found")
	errTestDoesNotExist  = fmt.Errorf("does not exist: %w", errTestNotFound)
	errTestThrottled     = errors.New("throttled")
	errTestUnrecognized  = errors.New("boom")
	testEndpointName     = "databricks_compute_start_cluster"
	testUpstreamMarker   = "REQUEST_LIMIT_EXCEEDED"
	testUpstreamFallback = "SOMETHING_ELSE"
)

// upstreamError stands in for the upstream client's base error type.
type upstreamError struct {
	code string
}

func (e *upstreamError) Error() string { return "upstream: " + e.code }

func testFamily(err error) (Category, bool) {
	var ue *upstreamError
	if !errors.As(err, &ue) {
		return "", false
	}
	if ue.code == testUpstreamMarker {
		return CategoryRateLimited, true
	}
	return CategoryInternal, true
}

func newTestClassifier(buf *bytes.Buffer) *Classifier {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewClassifier(
		WithRules(
			Is(errTestDoesNotExist, CategoryNotFound),
			Is(errTestNotFound, CategoryNotFound),
			Is(errTestThrottled, CategoryRateLimited),
		),
		WithFamily(testFamily),
		WithLogger(logger),
	)
}

func TestCategoryCodes(t *testing.T) {
	seen := map[int]Category{}
	for _, c := range Categories {
		code := c.Code()
		prev, dup := seen[code]
		assert.False(t, dup, "code %d shared by %s and %s", code, prev, c)
		seen[code] = c
		assert.NotEmpty(t, c.Title())
	}
	assert.Equal(t, CodeUnknown, Category("bogus").Code())
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"specific subtype", errTestDoesNotExist, CategoryNotFound},
		{"generic supertype", errTestNotFound, CategoryNotFound},
		{"wrapped", fmt.Errorf("getting cluster: %w", errTestNotFound), CategoryNotFound},
		{"rate limited", errTestThrottled, CategoryRateLimited},
		{"validation", Invalid("query_text", "provide exactly one"), CategoryInvalidInput},
		{"denied", Denied("secret retrieval is disabled"), CategoryPermissionDenied},
		{"upstream failed", Failed("statement %s finished FAILED", "01ef"), CategoryInternal},
		{"upstream marker", &upstreamError{code: testUpstreamMarker}, CategoryRateLimited},
		{"upstream fallback", &upstreamError{code: testUpstreamFallback}, CategoryInternal},
		{"unrecognized", errTestUnrecognized, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := newTestClassifier(&buf)
			got := c.Classify(testEndpointName, tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.want.Code(), got.Code)
			assert.Equal(t, testEndpointName, got.Endpoint)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_StableAcrossCallSites(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClassifier(&buf)

	for _, endpoint := range []string{"a", "b", "c"} {
		assert.Equal(t, CategoryNotFound, c.Classify(endpoint, errTestDoesNotExist).Category)
		assert.Equal(t, CategoryUnknown, c.Classify(endpoint, errTestUnrecognized).Category)
	}
}

func TestClassify_Message(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClassifier(&buf)

	got := c.Classify(testEndpointName, &upstreamError{code: "RESOURCE_DOES_NOT_EXIST"})
	assert.Contains(t, got.Message, fmt.Sprintf("[%d]", CodeInternal))
	assert.Contains(t, got.Message, "*errcode.upstreamError")
	assert.Contains(t, got.Message, "upstream: RESOURCE_DOES_NOT_EXIST")
	assert.Equal(t, got.Message, got.Error())

	wrapped := c.Classify(testEndpointName, fmt.Errorf("outer: %w", Invalid("limit", "must be positive")))
	assert.Contains(t, wrapped.Message, "*errcode.ValidationError")
	assert.Contains(t, wrapped.Message, "limit: must be positive")
}

func TestClassify_Logging(t *testing.T) {
	t.Run("recognized logs warn without stack", func(t *testing.T) {
		var buf bytes.Buffer
		c := newTestClassifier(&buf)
		c.Classify(testEndpointName, errTestNotFound)
		out := buf.String()
		assert.Contains(t, out, `"level":"WARN"`)
		assert.Contains(t, out, testEndpointName)
		assert.NotContains(t, out, `"stack"`)
	})

	t.Run("unrecognized logs error with stack", func(t *testing.T) {
		var buf bytes.Buffer
		c := newTestClassifier(&buf)
		c.Classify(testEndpointName, errTestUnrecognized)
		out := buf.String()
		assert.Contains(t, out, `"level":"ERROR"`)
		assert.Contains(t, out, `"stack"`)
		assert.Contains(t, out, "TestClassify_Logging")
	})

	t.Run("recorded stack is preferred", func(t *testing.T) {
		var buf bytes.Buffer
		c := newTestClassifier(&buf)
		c.Classify(testEndpointName, pkgerrors.New("with stack"))
		assert.Contains(t, buf.String(), "classifier_test.go")
	})
}

func TestClassify_PassThrough(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClassifier(&buf)

	assert.Nil(t, c.Classify(testEndpointName, nil))

	first := c.Classify(testEndpointName, errTestNotFound)
	buf.Reset()
	second := c.Classify("other", fmt.Errorf("again: %w", first))
	assert.Same(t, first, second)
	assert.Empty(t, buf.String())
}

func TestCategory(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClassifier(&buf)

	assert.Equal(t, CategoryRateLimited, c.Category(errTestThrottled))
	assert.Equal(t, CategoryUnknown, c.Category(errTestUnrecognized))
	assert.Empty(t, buf.String())
}

func TestValidationError(t *testing.T) {
	assert.Equal(t, "field: bad", Invalid("field", "bad").Error())
	assert.Equal(t, "bad", (&ValidationError{Reason: "bad"}).Error())
	assert.ErrorIs(t, Denied("x %d", 1), ErrPermissionDenied)
}
