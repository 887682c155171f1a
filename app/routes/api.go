package routes

import (
	"github.com/shashiranjanraj/fashioncraft/app/controllers"
	"github.com/shashiranjanraj/fashioncraft/pkg/ctx"
	"github.com/shashiranjanraj/fashioncraft/pkg/middleware"
	"github.com/shashiranjanraj/fashioncraft/pkg/ratelimit"
	"github.com/shashiranjanraj/fashioncraft/pkg/router"
)

// API holds what the /api routes need.
type API struct {
	Auth   *controllers.AuthController
	Orders *controllers.OrderController

	Tokens  middleware.TokenVerifier
	Limiter ratelimit.Limiter // nil disables rate limiting
	Proxies middleware.TrustedProxies

	MaxBodyBytes    int64
	MaxPreviewBytes int64
}

// multipartSlack covers form headers and boundaries around a preview image.
const multipartSlack = 64 << 10

func RegisterAPI(r *router.Router, api API) {
	gate := middleware.Authenticate(api.Tokens)
	jsonBody := middleware.BodyLimit(api.MaxBodyBytes)

	authMW := []router.Middleware{jsonBody}
	if api.Limiter != nil {
		authMW = append(authMW, middleware.RateLimit(api.Limiter, api.Proxies))
	}

	authGroup := r.Group("/api/auth")
	authGroup.Post("/register", "auth.register", ctx.Wrap(api.Auth.Register), authMW...)
	authGroup.Post("/login", "auth.login", ctx.Wrap(api.Auth.Login), authMW...)
	authGroup.Get("/me", "auth.me", ctx.Wrap(api.Auth.Me), gate)

	orders := r.Group("/api/orders", gate)
	orders.Get("", "orders.index", ctx.Wrap(api.Orders.Index))
	orders.Post("", "orders.store", ctx.Wrap(api.Orders.Store), jsonBody)
	orders.Get("/{id}", "orders.show", ctx.Wrap(api.Orders.Show))
	orders.Put("/{id}", "orders.update", ctx.Wrap(api.Orders.Update), jsonBody)
	orders.Delete("/{id}", "orders.destroy", ctx.Wrap(api.Orders.Destroy))
	orders.Get("/{id}/invoice", "orders.invoice", ctx.Wrap(api.Orders.Invoice))
	orders.Post("/{id}/preview", "orders.preview", ctx.Wrap(api.Orders.Preview),
		middleware.BodyLimit(api.MaxPreviewBytes+multipartSlack))
}
