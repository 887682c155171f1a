package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/auth"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/response"
)

// TokenVerifier resolves a token to the account id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate guards a route group. A request without the x-auth-token
// header gets 401, an unverifiable token gets 400, and neither reaches the
// handler. On success the identity is stored in the request context.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(auth.HeaderName))
			if token == "" {
				response.Error(w, apperr.ErrUnauthenticated)
				return
			}

			accountID, err := tokens.Verify(token)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("token rejected", "error", err)
				response.Error(w, apperr.ErrInvalidToken.WithCause(err))
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{AccountID: accountID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
