// Package bind decodes an HTTP request body into a struct.
//
// JSON bodies are decoded with encoding/json. URL-encoded form bodies are
// mapped onto the same struct through its json tags, so one payload type
// serves both encodings.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/productd/config"
)

// CastError reports a request value that cannot be converted to the type
// the store expects, such as a malformed ObjectID or a non-numeric number.
type CastError struct {
	Kind  string
	Value string
	Path  string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Cast to %s failed for value %q (type string) at path %q", e.Kind, e.Value, e.Path)
}

// Number parses raw as a float64, reporting failures as a CastError at path.
func Number(path, raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &CastError{Kind: "Number", Value: raw, Path: path}
	}
	return f, nil
}

// Body decodes r into dest according to its Content-Type. Form bodies go
// through Form; everything else is treated as JSON.
func Body(r *http.Request, dest any) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" {
		return Form(r, dest)
	}
	return JSON(r, dest)
}

// JSON decodes r.Body as JSON into dest. The body is capped at
// MAX_BODY_BYTES. An empty body leaves dest untouched and is not an error,
// so missing fields surface as validation failures instead.
func JSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Form parses a URL-encoded body and sets the fields of the struct dest
// points to, matched by json tag. String and float64 fields (or pointers to
// them) are supported. An empty number is left unset; a non-numeric one is a
// *CastError.
func Form(r *http.Request, dest any) error {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())
	}
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return fmt.Errorf("invalid form: %w", err)
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind: form destination must be a non-nil struct pointer, got %T", dest)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := fieldName(sf)
		if name == "" {
			continue
		}
		vals, ok := r.PostForm[name]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := setField(rv.Field(i), name, vals[0]); err != nil {
			return err
		}
	}
	return nil
}

func setField(fv reflect.Value, name, raw string) error {
	target := fv.Type()
	isPtr := target.Kind() == reflect.Ptr
	if isPtr {
		target = target.Elem()
	}

	var val reflect.Value
	switch target.Kind() {
	case reflect.String:
		val = reflect.ValueOf(raw).Convert(target)
	case reflect.Float64, reflect.Float32:
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		f, err := Number(name, raw)
		if err != nil {
			return err
		}
		val = reflect.ValueOf(f).Convert(target)
	default:
		return nil
	}

	if isPtr {
		p := reflect.New(target)
		p.Elem().Set(val)
		fv.Set(p)
		return nil
	}
	fv.Set(val)
	return nil
}

func fieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(sf.Name)
	}
	return name
}
