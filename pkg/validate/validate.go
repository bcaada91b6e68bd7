// Package validate provides struct-tag driven validation.
//
// Rules are declared in a `validate` tag, comma-separated, and evaluated in
// order. The first failing rule of the first failing field wins.
//
//	required            field must be present (non-nil pointer, non-empty string)
//	nullable            if empty, skip all remaining rules for this field
//	min=N               string: min rune length | number: min value
//	max=N               string: max rune length | number: max value
//	regex=pattern       value must contain a match of pattern (no commas)
//	unique=key          no other record holds this value; needs WithUnique
//
// Pointer fields are dereferenced, so a *float64 holding 0 satisfies
// `required` while a nil one does not. Only the empty string is absent; a
// string of spaces is present and goes on to the remaining rules.
//
// Messages can be overridden per field and rule with WithMessages, using
// "field.rule" keys. "{value}" in an override is replaced by the offending
// value:
//
//	v := validate.New(validate.WithMessages(validate.Messages{
//	    "phone.regex": "{value} is not a valid phone number",
//	}))
package validate

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Kind classifies a violation.
type Kind string

const (
	KindRequired   Kind = "required"
	KindLength     Kind = "length"
	KindRange      Kind = "range"
	KindFormat     Kind = "format"
	KindUniqueness Kind = "uniqueness"
)

// Error is a single rule violation.
type Error struct {
	Field   string
	Rule    string
	Kind    Kind
	Value   any
	Message string
}

func (e *Error) Error() string { return e.Message }

// Messages maps "field.rule" to a message template.
type Messages map[string]string

// UniqueFunc reports whether value is already taken for key.
type UniqueFunc func(ctx context.Context, key string, value any) (taken bool, err error)

// Option configures a Validator.
type Option func(*Validator)

// WithMessages overrides the default rule messages.
func WithMessages(m Messages) Option {
	return func(v *Validator) {
		for k, msg := range m {
			v.messages[k] = msg
		}
	}
}

// WithUnique installs the lookup backing the `unique` rule.
func WithUnique(fn UniqueFunc) Option {
	return func(v *Validator) { v.unique = fn }
}

// Validator evaluates the rule table of a struct type.
type Validator struct {
	messages Messages
	unique   UniqueFunc
}

// New builds a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{messages: Messages{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// First returns the first violation in s, or nil. A non-nil error means a
// rule could not be evaluated (e.g. the uniqueness lookup failed).
func (v *Validator) First(ctx context.Context, s any) (*Error, error) {
	rv, fields := tableFor(s)
	for _, f := range fields {
		verr, err := v.checkField(ctx, f, rv.Field(f.index))
		if err != nil || verr != nil {
			return verr, err
		}
	}
	return nil, nil
}

// ─── Rule table ───────────────────────────────────────────────────────────────

type rule struct {
	key   string
	param string
	re    *regexp.Regexp
}

type field struct {
	index    int
	name     string
	nullable bool
	rules    []rule
}

var tables sync.Map // reflect.Type → []field

func tableFor(s any) (reflect.Value, []field) {
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return rv, nil
	}

	if cached, ok := tables.Load(rv.Type()); ok {
		return rv, cached.([]field)
	}

	rt := rv.Type()
	var fields []field
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}
		f := field{index: i, name: jsonFieldName(sf)}
		for _, raw := range strings.Split(tag, ",") {
			key, param, _ := strings.Cut(strings.TrimSpace(raw), "=")
			if key == "nullable" {
				f.nullable = true
				continue
			}
			r := rule{key: key, param: param}
			if key == "regex" {
				r.re = regexp.MustCompile(param)
			}
			f.rules = append(f.rules, r)
		}
		fields = append(fields, f)
	}

	tables.Store(rt, fields)
	return rv, fields
}

func (v *Validator) checkField(ctx context.Context, f field, value reflect.Value) (*Error, error) {
	present := !isEmpty(value)
	if f.nullable && !present {
		return nil, nil
	}

	value = deref(value)
	for _, r := range f.rules {
		if r.key != "required" && !present {
			// Absent optional field: nothing else to check.
			return nil, nil
		}
		kind, failed, err := v.apply(ctx, r, f.name, value, present)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", f.name, err)
		}
		if failed {
			return v.violation(f.name, r, kind, value), nil
		}
	}
	return nil, nil
}

func (v *Validator) apply(ctx context.Context, r rule, name string, value reflect.Value, present bool) (Kind, bool, error) {
	raw := ""
	if value.IsValid() {
		raw = fmt.Sprintf("%v", value.Interface())
	}

	switch r.key {
	case "required":
		return KindRequired, !present, nil

	case "regex":
		return KindFormat, !r.re.MatchString(raw), nil

	case "min", "max":
		n := mustParseFloat(r.param)
		if isNumericKind(value) {
			f := toFloat(value)
			return KindRange, (r.key == "min" && f < n) || (r.key == "max" && f > n), nil
		}
		l := float64(len([]rune(raw)))
		return KindLength, (r.key == "min" && l < n) || (r.key == "max" && l > n), nil

	case "unique":
		if v.unique == nil {
			return KindUniqueness, false, nil
		}
		key := r.param
		if key == "" {
			key = name
		}
		taken, err := v.unique(ctx, key, value.Interface())
		if err != nil {
			return "", false, err
		}
		return KindUniqueness, taken, nil
	}

	return "", false, fmt.Errorf("unknown rule %q", r.key)
}

// Violation builds an Error for a rule that was enforced outside the
// validator, such as a unique index rejecting an insert, using the same
// message table.
func (v *Validator) Violation(field, ruleKey string, kind Kind, value any) *Error {
	return v.violation(field, rule{key: ruleKey}, kind, reflect.ValueOf(value))
}

func (v *Validator) violation(name string, r rule, kind Kind, value reflect.Value) *Error {
	var val any
	if value.IsValid() {
		val = value.Interface()
	}

	msg, ok := v.messages[name+"."+r.key]
	if !ok {
		msg = defaultMessage(name, r)
	}
	msg = strings.ReplaceAll(msg, "{value}", fmt.Sprintf("%v", val))

	return &Error{Field: name, Rule: r.key, Kind: kind, Value: val, Message: msg}
}

func defaultMessage(name string, r rule) string {
	switch r.key {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "regex":
		return fmt.Sprintf("The %s format is invalid.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", name, r.param)
	case "max":
		return fmt.Sprintf("The %s must not be greater than %s.", name, r.param)
	case "unique":
		return fmt.Sprintf("The %s has already been taken.", name)
	}
	return fmt.Sprintf("The %s is invalid.", name)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isEmpty treats nil pointers and empty strings as absent. Zero numbers
// behind a pointer are present; bare zero numbers are absent.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return true
		}
		if e := v.Elem(); e.Kind() == reflect.String {
			return e.Len() == 0
		}
		return false
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	}
	return v.Float()
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}
