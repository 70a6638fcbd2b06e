package errcode

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Rule maps errors accepted by Match to Category.
type Rule struct {
	Name     string
	Category Category
	Match    func(error) bool
}

// Is returns a rule matching errors for which errors.Is(err, target) holds.
func Is(target error, category Category) Rule {
	return Rule{
		Name:     target.Error(),
		Category: category,
		Match:    func(err error) bool { return errors.Is(err, target) },
	}
}

// As returns a rule matching errors that have a T in their chain.
func As[T error](category Category) Rule {
	var zero T
	return Rule{
		Name:     fmt.Sprintf("%T", zero),
		Category: category,
		Match: func(err error) bool {
			var target T
			return errors.As(err, &target)
		},
	}
}

// Family recognizes errors produced by the upstream platform client. It
// reports whether err belongs to the family and, if so, the category derived
// from secondary signals carried on the error.
type Family func(err error) (Category, bool)

// Classifier converts endpoint errors into classified Errors.
// It is safe for concurrent use.
type Classifier struct {
	rules  []Rule
	family Family
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules appends rules after the local ones. Order matters: list the most
// specific error first.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		c.rules = append(c.rules, rules...)
	}
}

// WithFamily sets the fallback for upstream errors that match no rule.
func WithFamily(f Family) Option {
	return func(c *Classifier) {
		c.family = f
	}
}

// WithLogger sets the logger. Defaults to slog.Default at call time.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = l
	}
}

// NewClassifier creates a classifier. Local validation, permission and
// upstream-failure errors are always checked first.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		rules: []Rule{
			As[*ValidationError](CategoryInvalidInput),
			Is(ErrPermissionDenied, CategoryPermissionDenied),
			Is(ErrUpstreamFailed, CategoryInternal),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify maps err raised by endpoint to exactly one classified Error and
// logs it. Returns nil for a nil error. An err that is already classified is
// returned unchanged.
func (c *Classifier) Classify(endpoint string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	category, recognized := c.categorize(err)
	e := &Error{
		Category: category,
		Code:     category.Code(),
		Endpoint: endpoint,
		Message:  fmt.Sprintf("[%d] %s: %s: %v", category.Code(), category.Title(), typeName(err), err),
		cause:    err,
	}

	c.log(e, recognized)
	return e
}

// Category returns the category err would be classified as, without logging.
func (c *Classifier) Category(err error) Category {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Category
	}
	category, _ := c.categorize(err)
	return category
}

func (c *Classifier) categorize(err error) (Category, bool) {
	for _, rule := range c.rules {
		if rule.Match(err) {
			return rule.Category, true
		}
	}
	if c.family != nil {
		if category, ok := c.family(err); ok {
			return category, true
		}
	}
	return CategoryUnknown, false
}

func (c *Classifier) log(e *Error, recognized bool) {
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}

	if recognized {
		logger.Warn("endpoint failed",
			"endpoint", e.Endpoint,
			"category", e.Category,
			"code", e.Code,
			"error", e.cause)
		return
	}

	logger.Error("endpoint failed with unexpected error",
		"endpoint", e.Endpoint,
		"category", e.Category,
		"code", e.Code,
		"error", e.cause,
		"stack", stackTrace(e.cause))
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackTrace prefers a stack recorded on err and falls back to the current one.
func stackTrace(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	if withStack, ok := pkgerrors.WithStack(err).(stackTracer); ok {
		return fmt.Sprintf("%+v", withStack.StackTrace())
	}
	return ""
}

// typeName names the outermost error type that is not a fmt wrapper.
func typeName(err error) string {
	for {
		name := fmt.Sprintf("%T", err)
		next := errors.Unwrap(err)
		if next == nil || !strings.HasPrefix(name, "*fmt.") {
			return name
		}
		err = next
	}
}
