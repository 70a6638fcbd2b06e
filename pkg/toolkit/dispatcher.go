package toolkit

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	pkgerrors "github.com/pkg/errors"
	"github.com/yosida95/uritemplate/v3"

	"github.com/txn2/mcp-databricks/pkg/errcode"
)

// OutcomeOK is the category label recorded for successful invocations.
const OutcomeOK = "ok"

// Recorder observes endpoint invocations. category is OutcomeOK on success.
type Recorder interface {
	RecordCall(endpoint string, kind Kind, category string, duration time.Duration)
}

// Dispatcher owns the endpoint table. It registers endpoints with the MCP
// server and runs every invocation through validation, panic recovery,
// error classification and the recorder.
type Dispatcher struct {
	classifier *errcode.Classifier
	validate   *validator.Validate
	recorder   Recorder

	mu        sync.RWMutex
	table     map[string]Meta
	templates map[string]*uritemplate.Template
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRecorder sets the invocation recorder.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher creates a dispatcher that classifies failures with c.
func NewDispatcher(c *errcode.Classifier, opts ...DispatcherOption) *Dispatcher {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	d := &Dispatcher{
		classifier: c,
		validate:   v,
		table:      make(map[string]Meta),
		templates:  make(map[string]*uritemplate.Template),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds endpoints owned by toolkitName to the table and to s.
// descriptions overrides endpoint descriptions by full name or by the name
// with the "databricks_<toolkit>_" prefix removed.
func (d *Dispatcher) Register(s *mcp.Server, toolkitName string, endpoints []Endpoint, descriptions map[string]string) error {
	for _, e := range endpoints {
		meta := e.Meta()
		meta.Toolkit = toolkitName
		if desc, ok := lookupDescription(descriptions, toolkitName, meta.Name); ok {
			meta.Description = desc
		}

		d.mu.Lock()
		if existing, dup := d.table[meta.Name]; dup {
			d.mu.Unlock()
			return fmt.Errorf("endpoint %s already registered by toolkit %s", meta.Name, existing.Toolkit)
		}
		d.table[meta.Name] = meta
		d.mu.Unlock()

		if err := e.register(s, d, meta); err != nil {
			d.mu.Lock()
			delete(d.table, meta.Name)
			d.mu.Unlock()
			return err
		}

		if meta.Kind == KindResource && strings.Contains(meta.Name, "{") {
			tmpl, err := uritemplate.New(meta.Name)
			if err != nil {
				return fmt.Errorf("parsing resource template %s: %w", meta.Name, err)
			}
			d.mu.Lock()
			d.templates[meta.Name] = tmpl
			d.mu.Unlock()
		}
	}
	return nil
}

// Lookup returns the table entry for name.
func (d *Dispatcher) Lookup(name string) (Meta, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.table[name]
	return m, ok
}

// Resolve returns the table entry for a tool name, a static resource URI or
// a concrete URI matching a registered resource template. When several
// templates match, the longest template wins.
func (d *Dispatcher) Resolve(name string) (Meta, bool) {
	if m, ok := d.Lookup(name); ok {
		return m, true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var best Meta
	found := false
	for pattern, tmpl := range d.templates {
		if tmpl.Match(name) == nil {
			continue
		}
		if !found || len(pattern) > len(best.Name) || (len(pattern) == len(best.Name) && pattern < best.Name) {
			best = d.table[pattern]
			found = true
		}
	}
	return best, found
}

// Entries returns the table sorted by name.
func (d *Dispatcher) Entries() []Meta {
	d.mu.RLock()
	out := make([]Meta, 0, len(d.table))
	for _, m := range d.table {
		out = append(out, m)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs fn as the endpoint described by meta. A returned error is
// always a *errcode.Error.
func (d *Dispatcher) Invoke(ctx context.Context, meta Meta, fn func(context.Context) (any, error)) (any, error) {
	start := time.Now()
	out, err := d.run(ctx, meta, fn)

	outcome := OutcomeOK
	var classified *errcode.Error
	if err != nil {
		classified = d.classify(meta.Name, err)
		outcome = string(classified.Category)
	}
	if d.recorder != nil {
		d.recorder.RecordCall(meta.Name, meta.Kind, outcome, time.Since(start))
	}

	if classified != nil {
		return nil, classified
	}
	return out, nil
}

func (d *Dispatcher) run(ctx context.Context, meta Meta, fn func(context.Context) (any, error)) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.Errorf("panic in %s: %v", meta.Name, r)
		}
	}()
	return fn(ctx)
}

func (d *Dispatcher) classify(endpoint string, err error) *errcode.Error {
	return d.classifier.Classify(endpoint, err)
}

// Validate checks the validate tags on in and returns the first violation
// as an *errcode.ValidationError.
func (d *Dispatcher) Validate(in any) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := d.validate.Struct(v.Interface())
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return errcode.Invalid(fe.Field(), "is required")
	case "oneof":
		return errcode.Invalid(fe.Field(), "must be one of [%s]", fe.Param())
	case "min", "gte":
		return errcode.Invalid(fe.Field(), "must be at least %s", fe.Param())
	case "max", "lte":
		return errcode.Invalid(fe.Field(), "must be at most %s", fe.Param())
	default:
		return errcode.Invalid(fe.Field(), "failed %s validation", fe.Tag())
	}
}

// MatchURI matches uri against tmpl and returns the expanded variables, or
// nil when uri does not match. Variables absent from uri are omitted.
func MatchURI(tmpl *uritemplate.Template, uri string) map[string]string {
	values := tmpl.Match(uri)
	if values == nil {
		return nil
	}
	vars := make(map[string]string, len(tmpl.Varnames()))
	for _, name := range tmpl.Varnames() {
		v := values.Get(name)
		if !v.Valid() {
			continue
		}
		if s := v.String(); s != "" {
			vars[name] = s
		}
	}
	return vars
}

// DecodeVars decodes URI template variables into out, a pointer to a struct
// with json tags. Numeric and boolean fields are parsed from their string form.
func DecodeVars(vars map[string]string, out any) error {
	if len(vars) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(vars); err != nil {
		return errcode.Invalid("uri", "%v", err)
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func lookupDescription(descriptions map[string]string, toolkitName, name string) (string, bool) {
	if len(descriptions) == 0 {
		return "", false
	}
	if desc, ok := descriptions[name]; ok {
		return desc, true
	}
	short := strings.TrimPrefix(name, "databricks_"+toolkitName+"_")
	desc, ok := descriptions[short]
	return desc, ok
}
