// Package router wraps chi with named routes and prefix groups.
//
//	r := router.New()
//	orders := r.Group("/api/orders", gate)
//	orders.Get("/{id}", "orders.show", c.Show)
//
// Route names must be unique; they are what `route:list` prints.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type Middleware func(http.Handler) http.Handler

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Router is the root of the route tree.
type Router struct {
	root   *Group
	mux    chi.Router
	mu     sync.RWMutex
	names  map[string]string
	routes []RouteInfo
}

// Group registers routes under a shared prefix and middleware stack.
type Group struct {
	router      *Router
	prefix      string
	middlewares []Middleware
}

func New() *Router {
	r := &Router{
		mux:   chi.NewRouter(),
		names: make(map[string]string),
	}
	r.root = &Group{router: r, prefix: "/"}
	return r
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) Group(prefix string, middlewares ...Middleware) *Group {
	return r.root.Group(prefix, middlewares...)
}

func (r *Router) Get(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Get(path, name, h, mw...)
}

func (r *Router) Post(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Post(path, name, h, mw...)
}

func (r *Router) Put(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Put(path, name, h, mw...)
}

func (r *Router) Delete(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Delete(path, name, h, mw...)
}

// Use adds middleware that runs for every request, matched or not.
func (r *Router) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

// NotFound sets the handler for unmatched paths.
func (r *Router) NotFound(h http.HandlerFunc) {
	r.mux.NotFound(h)
}

// MethodNotAllowed sets the handler for a known path with the wrong method.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) {
	r.mux.MethodNotAllowed(h)
}

// Mount attaches h under prefix for all methods, e.g. a file server.
func (r *Router) Mount(prefix, name string, h http.Handler) {
	full := joinPath(prefix)
	r.mux.Mount(full, h)
	r.record("*", full+"/*", name)
}

// Path returns the pattern registered under name.
func (r *Router) Path(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.names[name]
	return p, ok
}

// Routes lists registered routes sorted by path, then method.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	out := append([]RouteInfo(nil), r.routes...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// record panics on a reused name; that is a wiring bug caught at startup.
func (r *Router) record(method, path, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" {
		if prev, taken := r.names[name]; taken {
			panic(fmt.Sprintf("router: route name %q already used by %s", name, prev))
		}
		r.names[name] = path
	}
	r.routes = append(r.routes, RouteInfo{Method: method, Path: path, Name: name})
}

// ─── Group ───────────────────────────────────────────────────────────────────

// Group returns a child group. Its middleware runs after the parent's.
func (g *Group) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		router:      g.router,
		prefix:      joinPath(g.prefix, prefix),
		middlewares: g.with(middlewares),
	}
}

func (g *Group) Get(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.handle(http.MethodGet, path, name, h, mw)
}

func (g *Group) Post(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.handle(http.MethodPost, path, name, h, mw)
}

func (g *Group) Put(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.handle(http.MethodPut, path, name, h, mw)
}

func (g *Group) Delete(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.handle(http.MethodDelete, path, name, h, mw)
}

func (g *Group) handle(method, path, name string, h http.HandlerFunc, mw []Middleware) {
	full := joinPath(g.prefix, path)
	g.router.mux.Method(method, full, chain(h, g.with(mw)))
	g.router.record(method, full, name)
}

func (g *Group) with(mw []Middleware) []Middleware {
	return append(append([]Middleware(nil), g.middlewares...), mw...)
}

// chain wraps h so that mw[0] runs first.
func chain(h http.Handler, mw []Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func joinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return "/" + strings.Join(segments, "/")
}
