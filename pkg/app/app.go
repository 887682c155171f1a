// Package app assembles the fashioncraft application from a Config: the
// store, the auth and order services, the preview disk, the rate limiter
// and the HTTP handler that serves them.
//
//	cfg, err := config.Load(config.DefaultSources())
//	...
//	a, err := app.New(ctx, cfg)
//	...
//	defer a.Close(context.Background())
//	return a.Serve(ctx)
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/app/services"
	"github.com/shashiranjanraj/fashioncraft/config"
	"github.com/shashiranjanraj/fashioncraft/pkg/auth"
	"github.com/shashiranjanraj/fashioncraft/pkg/database"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/middleware"
	"github.com/shashiranjanraj/fashioncraft/pkg/ratelimit"
	"github.com/shashiranjanraj/fashioncraft/pkg/storage"
)

// Option overrides a dependency New would otherwise build from Config.
type Option func(*Application)

// WithStore uses s instead of connecting to STORE_DRIVER.
func WithStore(s repositories.Store) Option {
	return func(a *Application) { a.Store = s }
}

// WithDisk uses d for preview images instead of STORAGE_DISK.
func WithDisk(d storage.Disk) Option {
	return func(a *Application) { a.Disk = d }
}

// WithLimiter uses l for the auth routes instead of Redis or memory.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(a *Application) { a.Limiter = l }
}

// ─── Application ──────────────────────────────────────────────────────────────

// Application owns every long-lived dependency. Build it with New and
// release it with Close.
type Application struct {
	Config *config.Config

	Store   repositories.Store
	Disk    storage.Disk
	Limiter ratelimit.Limiter
	Proxies middleware.TrustedProxies
	Tokens  *auth.TokenService
	Hasher  *auth.Hasher

	Auth     *services.AuthService
	Orders   *services.OrderService
	Previews *services.PreviewService

	closers []func(context.Context) error
}

// New connects everything cfg describes. On error, whatever was already
// opened is closed again.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (a *Application, err error) {
	a = &Application{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
			a = nil
		}
	}()

	logger.Setup(cfg.AppEnv, cfg.LogLevel)

	if a.Store == nil {
		if a.Store, err = a.openStore(ctx); err != nil {
			return a, err
		}
	}
	a.Store = repositories.Instrument(a.Store)

	if a.Disk == nil {
		if a.Disk, err = storage.New(ctx, cfg.Storage); err != nil {
			return a, err
		}
	}

	if a.Limiter == nil {
		if a.Limiter, err = a.openLimiter(ctx); err != nil {
			return a, err
		}
	}

	if a.Proxies, err = middleware.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return a, err
	}

	if a.Tokens, err = auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		return a, err
	}
	a.Hasher = auth.NewHasher(cfg.HashWorkers, cfg.BcryptCost)
	a.onClose(func(context.Context) error {
		a.Hasher.Close()
		return nil
	})

	a.Auth = services.NewAuthService(a.Store.Accounts(), a.Tokens, a.Hasher)
	a.Orders = services.NewOrderService(a.Store.Orders(), cfg.InvoiceLabel)
	a.Previews = services.NewPreviewService(a.Store.Orders(), a.Disk, cfg.MaxPreviewBytes)

	logger.Info("application ready",
		"env", cfg.AppEnv,
		"store", a.Store.Driver(),
		"storage", cfg.Storage.Disk,
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// ─── Wiring ───────────────────────────────────────────────────────────────────

func (a *Application) openStore(ctx context.Context) (repositories.Store, error) {
	cfg := a.Config
	switch {
	case cfg.StoreDriver == "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), nil

	case cfg.StoreDriver == "mongo":
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.onClose(client.Disconnect)
		db := client.Database(cfg.MongoDatabase)

		if cfg.LogMongoCollection != "" {
			sink := logger.NewMongoHandler(ctx, db.Collection(cfg.LogMongoCollection), logger.ParseLevel(cfg.LogLevel))
			logger.Setup(cfg.AppEnv, cfg.LogLevel, sink)
			a.onClose(func(context.Context) error {
				sink.Close()
				return nil
			})
		}
		return repositories.NewMongoStore(db), nil

	case database.IsSQL(cfg.StoreDriver):
		db, err := database.ConnectSQL(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return database.CloseSQL(db) })
		return repositories.NewSQLStore(db, cfg.StoreDriver), nil
	}
	return nil, fmt.Errorf("app: unsupported STORE_DRIVER %q", cfg.StoreDriver)
}

// openLimiter shares counters through Redis when REDIS_ADDR is set and
// falls back to a per-process window otherwise.
func (a *Application) openLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	cfg := a.Config
	if cfg.RateLimitMax <= 0 {
		return nil, nil
	}

	if cfg.RedisAddr != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return client.Close() })
		return ratelimit.NewRedisLimiter(client, "fashioncraft:auth:", cfg.RateLimitMax, cfg.RateLimitWindow), nil
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	sweepCtx, stop := context.WithCancel(context.Background())
	go limiter.Run(sweepCtx, cfg.RateLimitWindow)
	a.onClose(func(context.Context) error {
		stop()
		return nil
	})
	return limiter, nil
}

// Migrate creates the store's indexes or tables.
func (a *Application) Migrate(ctx context.Context) error {
	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("app: migrate %s: %w", a.Store.Driver(), err)
	}
	return nil
}
