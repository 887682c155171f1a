package app

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/fashioncraft/app/controllers"
	"github.com/shashiranjanraj/fashioncraft/app/routes"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
	"github.com/shashiranjanraj/fashioncraft/pkg/middleware"
	"github.com/shashiranjanraj/fashioncraft/pkg/reqid"
	"github.com/shashiranjanraj/fashioncraft/pkg/response"
	"github.com/shashiranjanraj/fashioncraft/pkg/router"
	"github.com/shashiranjanraj/fashioncraft/pkg/storage"
)

// StoragePrefix is where a local disk's files are served.
const StoragePrefix = "/storage"

const healthTimeout = 2 * time.Second

// Router builds the route table with the global middleware stack.
func (a *Application) Router() *router.Router {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics: outermost for accurate total latency
	//  2. Request ID: inject unique ID before anything logs
	//  3. Logger: logs request_id from context
	//  4. Recovery: turns panics into 500 {msg}, logged with the request id
	//  5. CORS: set CORS headers, answer preflights
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(a.corsOptions()))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, apperr.ErrNotFound.WithMessage("Ruta no encontrada"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Msg(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	// No auth, no rate limit.
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", a.health)

	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		r.Mount(StoragePrefix, "storage", http.StripPrefix(StoragePrefix, local.Handler()))
	}

	routes.RegisterAPI(r, routes.API{
		Auth:            controllers.NewAuthController(a.Auth),
		Orders:          controllers.NewOrderController(a.Orders, a.Previews),
		Tokens:          a.Tokens,
		Limiter:         a.Limiter,
		Proxies:         a.Proxies,
		MaxBodyBytes:    a.maxBodyBytes(),
		MaxPreviewBytes: a.maxPreviewBytes(),
	})
	return r
}

// Handler is the application's http.Handler.
func (a *Application) Handler() http.Handler {
	return a.Router().Handler()
}

// health reports 503 when the store does not answer a ping.
func (a *Application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := a.Store.Ping(ctx); err != nil {
		logger.WithCtx(r.Context()).Warn("health check failed", "store", a.Store.Driver(), "error", err)
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	response.OK(w, map[string]string{"status": "ok"})
}

func (a *Application) corsOptions() middleware.CORSOptions {
	opts := middleware.DefaultCORSOptions()
	if a.Config != nil && len(a.Config.CORSAllowedOrigins) > 0 {
		opts.AllowedOrigins = a.Config.CORSAllowedOrigins
	}
	return opts
}

func (a *Application) maxBodyBytes() int64 {
	if a.Config == nil {
		return 0
	}
	return a.Config.MaxBodyBytes
}

func (a *Application) maxPreviewBytes() int64 {
	if a.Previews == nil {
		return 0
	}
	return a.Previews.MaxBytes()
}

// Routes lists the route table without connecting to anything.
func Routes() []router.RouteInfo {
	return (&Application{}).Router().Routes()
}
