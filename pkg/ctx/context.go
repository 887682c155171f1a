// Package ctx provides a request context for API handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context:
//
//	func Show(c *ctx.Context) {
//	    order, err := svc.Get(c.Context(), c.AccountID(), c.Param("id"))
//	    ...
//	    c.OK(order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(Show))
package ctx

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/auth"
	"github.com/shashiranjanraj/fashioncraft/pkg/bind"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/response"
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
	W      http.ResponseWriter
	R      *http.Request
	status int // written status code (0 = not written yet)
}

// pool recycles Context objects to reduce GC pressure.
var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter (e.g. "/orders/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// AccountID returns the caller verified by the access gate, or "" on an
// unauthenticated route.
func (c *Context) AccountID() string {
	id, _ := auth.IdentityFrom(c.R.Context())
	return id.AccountID
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation. On failure
// it sends 400 {"msg": ..., "errors": {...}} and returns false.
//
//	var input models.RegisterInput
//	if !c.BindJSON(&input) {
//	    return // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		logger.WithCtx(c.Context()).Debug("bad request body", "error", err)
		c.Error(apperr.Validation("%v", err))
		return false
	}
	if len(errs) > 0 {
		c.Error(apperr.ErrValidation.WithFields(errs))
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// OK sends a 200 with v as the body.
func (c *Context) OK(v any) { c.JSON(http.StatusOK, v) }

// Msg sends {"msg": msg}.
func (c *Context) Msg(code int, msg string) {
	c.JSON(code, response.Message{Msg: msg})
}

// Error renders err by its classification.
func (c *Context) Error(err error) {
	c.status = apperr.From(err).HTTPStatus
	response.Error(c.W, err)
}

// Fail renders err, replacing the generic store message with storeMsg.
// Unclassified errors are logged.
func (c *Context) Fail(err error, storeMsg string) {
	ae := apperr.From(err)
	if ae.Code == apperr.ErrStore.Code {
		logger.WithCtx(c.Context()).Error("request failed",
			"method", c.R.Method, "path", c.R.URL.Path, "error", err)
	}
	c.status = ae.HTTPStatus
	response.Fail(c.W, err, storeMsg)
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
