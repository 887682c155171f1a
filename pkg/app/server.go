package app

import (
	"context"

	"github.com/shashiranjanraj/fashioncraft/internal/server"
)

// Serve listens on the configured port until ctx is cancelled, then drains
// in-flight requests for up to SHUTDOWN_TIMEOUT.
func (a *Application) Serve(ctx context.Context) error {
	srv := server.New(a.Config.Addr(), a.Handler())
	return server.Run(ctx, srv, a.Config.ShutdownTimeout)
}
