package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
	"github.com/shashiranjanraj/fashioncraft/pkg/response"
)

// Recovery turns a handler panic into 500 {"msg": "Error en servidor"}.
// It sits inside Logger so the panic is logged with the request id.
// http.ErrAbortHandler is re-raised for net/http to abort the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			metrics.Panics.Inc()
			logger.WithCtx(r.Context()).Error("panic recovered",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			response.Error(w, apperr.ErrStore)
		}()
		next.ServeHTTP(w, r)
	})
}
