// Package ctx provides a request context for productd handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and the
// response envelope:
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    p, err := pc.service.Get(c.Context(), c.Param("id"))
//	    ...
//	    c.OK("return a single product", p)
//	}
//
//	router.Get("/products/{id}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/productd/pkg/bind"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/products/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, "" if absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Path returns the request path.
func (c *Context) Path() string { return c.R.URL.Path }

// Context returns the request context. Pass it to every store call.
func (c *Context) Context() context.Context { return c.R.Context() }

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// ─── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the JSON or form body into dest. A value that cannot be cast
// to its field type answers 500 with the cast message; any other decode
// error answers 400. Either way it returns false.
//
//	var input models.ProductInput
//	if !c.Bind(&input) {
//	    return
//	}
func (c *Context) Bind(dest any) bool {
	err := bind.Body(c.R, dest)
	if err == nil {
		return true
	}
	var cerr *bind.CastError
	if errors.As(err, &cerr) {
		c.InternalError(err)
		return false
	}
	c.Error(http.StatusBadRequest, err.Error())
	return false
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// Success writes a success envelope with the given status.
func (c *Context) Success(code int, message string, data any) {
	response.Success(c.W, code, message, data)
}

// OK sends a 200 success envelope.
func (c *Context) OK(message string, data any) {
	c.Success(http.StatusOK, message, data)
}

// Accepted sends a 202 success envelope.
func (c *Context) Accepted(message string, data any) {
	c.Success(http.StatusAccepted, message, data)
}

// Error sends a failure envelope.
func (c *Context) Error(code int, message string) {
	response.Error(c.W, code, message)
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// InternalError sends a 500 carrying err's message.
func (c *Context) InternalError(err error) {
	c.Error(http.StatusInternalServerError, err.Error())
}

// String writes a plain-text response.
func (c *Context) String(code int, format string, args ...any) {
	response.Text(c.W, code, fmt.Sprintf(format, args...))
}
